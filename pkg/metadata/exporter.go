// Package metadata renders DataCite Kernel-4 metadata documents for
// publications and prepares them for registration.
//
// The store renders the raw XML server-side; this package injects the schema
// binding attributes, writes the document to the export directory, and
// encodes it for the registration payload. File naming is derived in exactly
// one place (FilePath) so the exporter, the encoder, and the orchestrator can
// never disagree on it.
package metadata

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// DataCite Kernel-4 schema binding injected on the root element of every
// exported document.
const (
	xsiNamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	kernelNamespace = "http://datacite.org/schema/kernel-4"
	schemaLocation  = "http://datacite.org/schema/kernel-4 http://schema.datacite.org/meta/kernel-4.1/metadata.xsd"
)

// FilePath returns the canonical metadata document path for a publication,
// "<dir>/DC<pubID>.xml".
func FilePath(dir string, pubID uint) string {
	return filepath.Join(dir, fmt.Sprintf("DC%d.xml", pubID))
}

// Renderer produces the raw (unbound) DataCite XML for one publication.
type Renderer interface {
	RenderXML(ctx context.Context, pubID uint) (string, error)
}

// SQLRenderer renders metadata through the store-side DataciteXmlById
// function.
type SQLRenderer struct {
	db *gorm.DB
}

// NewSQLRenderer returns a Renderer backed by the store-side rendering
// function.
func NewSQLRenderer(db *gorm.DB) *SQLRenderer {
	return &SQLRenderer{db: db}
}

// RenderXML executes the rendering function for one publication and returns
// the XML text.
func (r *SQLRenderer) RenderXML(ctx context.Context, pubID uint) (string, error) {
	var doc string
	err := r.db.WithContext(ctx).
		Raw("SELECT DataciteXmlById(?) AS datacite_xml", pubID).
		Scan(&doc).Error
	if err != nil {
		return "", fmt.Errorf("render metadata for publication %d: %w", pubID, err)
	}
	if doc == "" {
		return "", fmt.Errorf("store returned no metadata for publication %d", pubID)
	}
	return doc, nil
}

// ExporterConfig holds configuration for an Exporter.
type ExporterConfig struct {
	Renderer Renderer     // Required
	Dir      string       // Export directory (required)
	FS       afero.Fs     // Filesystem (default: OS filesystem)
	Logger   hclog.Logger // Logger (optional)
}

// Exporter renders and writes metadata documents.
type Exporter struct {
	renderer Renderer
	dir      string
	fs       afero.Fs
	logger   hclog.Logger
}

// NewExporter creates a new metadata exporter.
func NewExporter(cfg ExporterConfig) (*Exporter, error) {
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Exporter{
		renderer: cfg.Renderer,
		dir:      cfg.Dir,
		fs:       cfg.FS,
		logger:   cfg.Logger.Named("metadata-exporter"),
	}, nil
}

// Export renders the metadata for one publication, injects the Kernel-4
// schema binding, and writes the document to the export directory. An
// existing document for the publication is overwritten. Returns the written
// path.
func (e *Exporter) Export(ctx context.Context, pubID uint) (string, error) {
	raw, err := e.renderer.RenderXML(ctx, pubID)
	if err != nil {
		return "", err
	}

	doc, err := injectSchemaBinding(raw)
	if err != nil {
		return "", fmt.Errorf("bind schema for publication %d: %w", pubID, err)
	}

	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := FilePath(e.dir, pubID)
	if err := afero.WriteFile(e.fs, path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write metadata document: %w", err)
	}

	e.logger.Info("metadata document written",
		"publication_id", pubID,
		"path", path,
	)
	return path, nil
}

// injectSchemaBinding rewrites the document so the root element carries the
// three Kernel-4 binding attributes, serializing with a standard UTF-8 XML
// declaration. Any declaration or directive in the input is replaced.
func injectSchemaBinding(raw string) ([]byte, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	rootSeen := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !rootSeen {
				rootSeen = true
				t.Attr = append(t.Attr,
					xml.Attr{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNamespace},
					xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: kernelNamespace},
					xml.Attr{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: schemaLocation},
				)
			}
			if err := enc.EncodeToken(t); err != nil {
				return nil, fmt.Errorf("encode XML: %w", err)
			}
		case xml.ProcInst, xml.Directive:
			// Declaration rewritten above.
		default:
			if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
				return nil, fmt.Errorf("encode XML: %w", err)
			}
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("document has no root element")
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode XML: %w", err)
	}
	return buf.Bytes(), nil
}
