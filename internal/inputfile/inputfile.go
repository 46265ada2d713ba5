// Package inputfile loads analysis requests from JSON or YAML files and
// watches them for changes.
package inputfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/bizpulse/internal/business"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

// Supported encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for file extensions other than .json, .yaml and .yml.
var ErrUnknownFormat = xerrors.New("inputfile: unknown format")

// ErrMultipleDocuments is returned when a YAML file holds more than one document.
var ErrMultipleDocuments = xerrors.New("inputfile: more than one yaml document")

// FormatOf returns the encoding implied by the file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads and decodes the request stored at path.
func Load(path string) (*business.Request, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("inputfile: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	req, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("inputfile: %s: %w", path, err)
	}
	return req, nil
}

// Decode reads one request in the given format. Unknown keys are rejected.
// Presence of the individual fields is checked later by Request.Validate.
func Decode(r io.Reader, format string) (*business.Request, error) {
	var req business.Request

	switch format {
	case FormatJSON:
		decoded, err := business.DecodeJSON(r)
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		req = *decoded
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read yaml: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		var extra yaml.Node
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", ErrMultipleDocuments)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &req, nil
}

// Watch calls onChange with the freshly loaded request every time path is
// written or replaced. It runs until ctx is cancelled.
//
// The parent directory is watched so atomic saves (write to temp file, rename)
// are picked up. A file that fails to load is logged and skipped.
func Watch(ctx context.Context, path string, logger log.Logger, onChange func(*business.Request)) error {
	if logger == nil {
		logger = log.Nop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("inputfile: resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inputfile: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("inputfile: watch %s: %w", filepath.Dir(abs), err)
	}

	L := logger.With("path", abs)
	L.Info(ctx, "watching input file for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			req, err := Load(abs)
			if err != nil {
				L.Warn(ctx, "reload failed, waiting for next change", "err", err)
				continue
			}
			onChange(req)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			L.Error(ctx, err, "watcher error")
		}
	}
}
