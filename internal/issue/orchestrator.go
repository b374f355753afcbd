// Package issue drives publications through the DOI issuance workflow:
// metadata export, candidate minting, payload encoding, registration, alias
// resolution, and persistence.
package issue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/marineinst/doimint/pkg/datacite"
	"github.com/marineinst/doimint/pkg/doi"
	"github.com/marineinst/doimint/pkg/metadata"
	"github.com/marineinst/doimint/pkg/models"
)

// Registrar registers candidate DOIs with the registration authority.
type Registrar interface {
	Register(ctx context.Context, d doi.DOI, encodedXML string) (string, error)
}

// AliasResolver resolves short aliases for registered DOIs.
type AliasResolver interface {
	Resolve(ctx context.Context, registeredDOI string) (string, error)
}

// Orchestrator coordinates the per-publication issuance workflow. Processing
// is strictly sequential: one publication runs to completion before the next
// begins.
type Orchestrator struct {
	db         *gorm.DB
	exporter   *metadata.Exporter
	registrar  Registrar
	resolver   AliasResolver
	fs         afero.Fs
	exportDir  string
	prefix     string
	excludeIDs []uint
	logger     hclog.Logger
	now        func() time.Time
}

// Option is a functional option for creating an Orchestrator.
type Option func(*Orchestrator)

// WithDatabase sets the store connection.
func WithDatabase(db *gorm.DB) Option {
	return func(o *Orchestrator) {
		o.db = db
	}
}

// WithExporter sets the metadata exporter.
func WithExporter(exporter *metadata.Exporter) Option {
	return func(o *Orchestrator) {
		o.exporter = exporter
	}
}

// WithRegistrar sets the DOI registration client.
func WithRegistrar(registrar Registrar) Option {
	return func(o *Orchestrator) {
		o.registrar = registrar
	}
}

// WithResolver sets the alias resolution client.
func WithResolver(resolver AliasResolver) Option {
	return func(o *Orchestrator) {
		o.resolver = resolver
	}
}

// WithFilesystem sets the filesystem used to read exported documents.
func WithFilesystem(fs afero.Fs) Option {
	return func(o *Orchestrator) {
		o.fs = fs
	}
}

// WithExportDir sets the metadata export directory.
func WithExportDir(dir string) Option {
	return func(o *Orchestrator) {
		o.exportDir = dir
	}
}

// WithPrefix sets the DOI registrant prefix.
func WithPrefix(prefix string) Option {
	return func(o *Orchestrator) {
		o.prefix = prefix
	}
}

// WithExcludedIDs sets the publication IDs skipped by the pending scan.
func WithExcludedIDs(ids []uint) Option {
	return func(o *Orchestrator) {
		o.excludeIDs = ids
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock overrides the time source. Used by tests to pin the issuance
// date.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates a new issuance orchestrator.
func NewOrchestrator(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		fs:     afero.NewOsFs(),
		prefix: doi.DefaultPrefix,
		now:    time.Now,
		logger: hclog.New(&hclog.LoggerOptions{
			Name: "issue",
		}),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if o.exporter == nil {
		return nil, fmt.Errorf("metadata exporter is required")
	}
	if o.registrar == nil {
		return nil, fmt.Errorf("registrar is required")
	}
	if o.resolver == nil {
		return nil, fmt.Errorf("alias resolver is required")
	}
	if o.exportDir == "" {
		return nil, fmt.Errorf("export directory is required")
	}

	return o, nil
}

// Pending returns the publication IDs currently eligible for issuance.
func (o *Orchestrator) Pending(ctx context.Context) ([]uint, error) {
	return models.PendingPublicationIDs(o.db.WithContext(ctx), o.excludeIDs)
}

// Run scans for pending publications and issues a DOI for each in sequence.
// A failed publication never stops the batch; per-publication failures are
// collected into the returned error while the Summary carries every result.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	ids, err := o.Pending(ctx)
	if err != nil {
		return &Summary{}, fmt.Errorf("scan pending publications: %w", err)
	}

	if len(ids) == 0 {
		o.logger.Info("all published datasets already have DOIs")
		return &Summary{}, nil
	}

	o.logger.Info("starting issuance batch", "pending", len(ids))

	summary := &Summary{}
	var errs *multierror.Error
	for _, id := range ids {
		res := o.IssueOne(ctx, id)
		summary.Results = append(summary.Results, res)
		if res.Succeeded() {
			summary.Issued++
		} else {
			summary.Failed++
			errs = multierror.Append(errs,
				fmt.Errorf("publication %d (%s): %s", id, res.Outcome, res.Detail))
		}
	}

	o.logger.Info("issuance batch finished",
		"issued", summary.Issued,
		"failed", summary.Failed,
	)
	return summary, errs.ErrorOrNil()
}

// IssueOne drives a single publication through the full workflow.
//
// An export failure is tolerated: registration still proceeds with whatever
// document (possibly none) is on disk, matching the manual-recovery posture
// of the workflow. Once the provider confirms the registration, any later
// failure is reported as OutcomeRegisteredUnpersisted so the upstream DOI is
// never silently lost.
func (o *Orchestrator) IssueOne(ctx context.Context, pubID uint) Result {
	res := Result{PubID: pubID}

	if _, err := o.exporter.Export(ctx, pubID); err != nil {
		o.logger.Error("metadata export failed, continuing with existing document",
			"publication_id", pubID,
			"error", err,
		)
	} else {
		res.MetadataExported = true
	}

	candidate := doi.Mint(o.prefix)
	res.DOI = candidate

	payload, err := metadata.EncodePayload(o.fs, o.exportDir, pubID)
	if err != nil {
		o.logger.Error("metadata payload unreadable, submitting empty payload",
			"publication_id", pubID,
			"error", err,
		)
	}
	if payload == "" {
		o.logger.Warn("no metadata document for publication",
			"publication_id", pubID,
			"path", metadata.FilePath(o.exportDir, pubID),
		)
	}

	registered, err := o.registrar.Register(ctx, candidate, payload)
	if err != nil {
		res.Outcome = OutcomeRegistrationFailed
		res.Detail = registrationDetail(err)
		o.logger.Error("DOI registration failed",
			"publication_id", pubID,
			"doi", candidate.String(),
			"error", err,
		)
		return res
	}

	if confirmed, perr := doi.Parse(registered); perr == nil {
		res.DOI = confirmed
	} else {
		o.logger.Warn("provider returned an unparsable DOI, keeping candidate",
			"publication_id", pubID,
			"returned", registered,
		)
	}

	alias, err := o.resolver.Resolve(ctx, registered)
	if err != nil {
		res.Outcome = OutcomeRegisteredUnpersisted
		res.Detail = fmt.Sprintf("alias resolution failed: %v", err)
		o.logger.Error("short DOI resolution failed after registration",
			"publication_id", pubID,
			"doi", registered,
			"error", err,
		)
		return res
	}
	res.ShortDOI = alias

	pubRows, err := models.MarkPublicationIssued(
		o.db.WithContext(ctx), pubID, registered, alias, o.issuanceDate())
	if err != nil {
		res.Outcome = OutcomeRegisteredUnpersisted
		res.Detail = fmt.Sprintf("publication update failed: %v", err)
		return res
	}
	res.PublicationRows = pubRows

	token := uuid.NewString()
	dsRows, err := models.SetDatasetUUID(o.db.WithContext(ctx), pubID, token)
	if err != nil {
		res.Outcome = OutcomeRegisteredUnpersisted
		res.Detail = fmt.Sprintf("publication row updated but dataset update failed: %v", err)
		return res
	}
	res.DatasetRows = dsRows

	res.Outcome = OutcomeIssued
	o.logger.Info("DOI issued",
		"publication_id", pubID,
		"doi", registered,
		"short_doi", alias,
		"publication_rows", pubRows,
		"dataset_rows", dsRows,
	)
	return res
}

// issuanceDate returns today's date truncated to midnight UTC.
func (o *Orchestrator) issuanceDate() time.Time {
	now := o.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// registrationDetail renders a registration failure for the report line,
// preserving status code and body when the provider answered.
func registrationDetail(err error) string {
	var regErr *datacite.RegistrationError
	if errors.As(err, &regErr) {
		return fmt.Sprintf("response code: %d, response body: %s", regErr.StatusCode, regErr.Body)
	}
	return err.Error()
}
