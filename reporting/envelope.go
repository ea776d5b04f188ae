package reporting

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope wraps an analysis result with the metadata needed to refer to it
type Envelope struct {
	ID      string           `json:"analysis_id"`
	Source  string           `json:"source"`
	Version string           `json:"version"`
	Result  *analysis.Result `json:"result"`
}

// NewEnvelope wraps result. The analysis id is derived from the encoded
// result, so analyzing the same capture twice yields the same id.
func NewEnvelope(result *analysis.Result, source, version string) (*Envelope, error) {
	if result == nil {
		return nil, errors.New("no analysis result to wrap")
	}
	canonical, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis result: %w", err)
	}
	return &Envelope{
		ID:      uuid.NewSHA1(uuid.NameSpaceURL, canonical).String(),
		Source:  source,
		Version: version,
		Result:  result,
	}, nil
}

// WriteJSON encodes v to w, indented when pretty is set
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// ReadEnvelope decodes an envelope written by WriteJSON. A bare analysis
// result is accepted too and wrapped without an id.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if env.Result != nil {
		return env, nil
	}

	result := &analysis.Result{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if result.Threats == nil && result.Statistics.InputPackets == 0 {
		return nil, errors.New("input does not contain an analysis result")
	}
	return &Envelope{Result: result}, nil
}
