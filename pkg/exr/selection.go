package exr

import (
	"fmt"
	"strings"
)

// MaxChannels is the largest number of channels one selection may request
const MaxChannels = 4

// ChannelRequest names one channel of a selection
type ChannelRequest struct {
	Name     string
	Required bool
}

// Required requests a channel the layer must contain
func Required(name string) ChannelRequest { return ChannelRequest{Name: name, Required: true} }

// Optional requests a channel that decodes as "no value" when the layer lacks it
func Optional(name string) ChannelRequest { return ChannelRequest{Name: name} }

func (r ChannelRequest) String() string {
	if r.Required {
		return r.Name
	}
	return r.Name + "?"
}

// ParseChannelRequest reads "R" as required and "A?" as optional
func ParseChannelRequest(s string) ChannelRequest {
	s = strings.TrimSpace(s)
	if name, ok := strings.CutSuffix(s, "?"); ok {
		return Optional(name)
	}
	return Required(s)
}

// Selection is the ordered, fixed set of channels a reader or writer works with.
// Slot i of every Pixel holds the value of request i.
type Selection struct {
	requests []ChannelRequest
}

// NewSelection validates 1 to MaxChannels uniquely named requests
func NewSelection(requests ...ChannelRequest) (Selection, error) {
	if len(requests) == 0 || len(requests) > MaxChannels {
		return Selection{}, fmt.Errorf("%w: %d channels requested, want 1 to %d",
			ErrInvalidSelection, len(requests), MaxChannels)
	}
	for i, r := range requests {
		if r.Name == "" {
			return Selection{}, fmt.Errorf("%w: channel %d has no name", ErrInvalidSelection, i)
		}
		for _, prev := range requests[:i] {
			if prev.Name == r.Name {
				return Selection{}, fmt.Errorf("%w: channel %q requested twice", ErrInvalidSelection, r.Name)
			}
		}
	}
	reqs := make([]ChannelRequest, len(requests))
	copy(reqs, requests)
	return Selection{requests: reqs}, nil
}

// MustSelection is NewSelection for selections known at compile time
func MustSelection(requests ...ChannelRequest) Selection {
	sel, err := NewSelection(requests...)
	if err != nil {
		panic(err)
	}
	return sel
}

// ParseSelection reads a comma separated list such as "R,G,B,A?"
func ParseSelection(s string) (Selection, error) {
	var reqs []ChannelRequest
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		reqs = append(reqs, ParseChannelRequest(part))
	}
	return NewSelection(reqs...)
}

// RGB selects required R, G and B channels
func RGB() Selection { return MustSelection(Required("R"), Required("G"), Required("B")) }

// RGBA selects required R, G, B and an optional A channel
func RGBA() Selection {
	return MustSelection(Required("R"), Required("G"), Required("B"), Optional("A"))
}

// Len is the arity of the selection
func (s Selection) Len() int { return len(s.requests) }

// Request returns the i-th request
func (s Selection) Request(i int) ChannelRequest { return s.requests[i] }

// Requests returns a copy of the requests
func (s Selection) Requests() []ChannelRequest {
	out := make([]ChannelRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s Selection) String() string {
	parts := make([]string, len(s.requests))
	for i, r := range s.requests {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
