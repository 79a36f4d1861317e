// Package report renders automation results for humans (text) or tools
// (json, yaml).
package report

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/linuxautomation/autokit/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Format of a rendered report
type Format string

const (
	// Text is a human readable report, the default
	Text Format = "text"
	// JSON report
	JSON Format = "json"
	// YAML report
	YAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported formats
func Formats() []Format {
	return []Format{Text, JSON, YAML}
}

// ParseFormat validates a format name. An empty name is Text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, YAML:
		return f, nil
	default:
		return "", ErrUnknownFormat.Wrapf("%q (expected one of %v)", s, Formats())
	}
}

// Render v to w in the given format
func Render(w io.Writer, format Format, v interface{}) error {
	switch format {
	case JSON:
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case Text, "":
		return renderText(w, v)
	default:
		return ErrUnknownFormat.Wrapf("%q", format)
	}
}
