package cmd

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
)

// openInput resolves "-", http(s) urls and file paths into a seekable reader.
// Streams are buffered fully since the offset table needs random access.
func openInput(ctx context.Context, uri string, verbose bool) (io.ReadSeekCloser, error) {
	uri = strings.TrimPrefix(uri, "file://")
	switch {
	case uri == "":
		return nil, fmt.Errorf("file path is required. Use --file flag or provide as argument")
	case uri == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return nopCloser{bytes.NewReader(data)}, nil
	case strings.HasPrefix(uri, "http"):
		// TODO make this a param
		cl := &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := cl.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		defer resp.Body.Close()
		if verbose {
			reqDump, _ := httputil.DumpRequest(req, true)
			os.Stderr.Write(reqDump)
			resDump, _ := httputil.DumpResponse(resp, false)
			os.Stderr.Write(resDump)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download: %s", resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		return nopCloser{bytes.NewReader(data)}, nil
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		return f, nil
	}
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// inputPath takes --file or the first positional argument
func inputPath(flagValue string, args []string) string {
	if flagValue == "" && len(args) > 0 {
		return args[0]
	}
	return flagValue
}
