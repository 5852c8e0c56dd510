package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"glimpse/internal/catalog"
	"glimpse/internal/imagesource"
	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

// Gateway is the subset of the API client the tool handlers need.
type Gateway interface {
	ChatCompletion(ctx context.Context, req openrouter.ChatRequest) (openrouter.ChatResponse, error)
	ListModels(ctx context.Context) ([]openrouter.Model, error)
	GetModel(ctx context.Context, id string) (openrouter.Model, error)
}

// ModelResolver decides the model id to send upstream.
type ModelResolver interface {
	Resolve(ctx context.Context, requested, configuredDefault string) string
}

// ImageLoader resolves image references into normalized bytes.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (imagesource.Image, error)
}

// Service owns the tool handlers and their collaborators. All dependencies
// are injected; the service holds no hidden global state.
type Service struct {
	gateway      Gateway
	directory    *catalog.Directory
	snapshots    *catalog.Store
	resolver     ModelResolver
	loader       ImageLoader
	defaultModel string
	logger       *slog.Logger
	newID        func() string
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithSnapshotStore persists directory refreshes to the given store.
func WithSnapshotStore(store *catalog.Store) ServiceOption {
	return func(s *Service) { s.snapshots = store }
}

// WithIDGenerator overrides request id generation (useful for tests).
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService wires the tool handlers to their collaborators.
func NewService(
	gateway Gateway,
	directory *catalog.Directory,
	resolver ModelResolver,
	loader ImageLoader,
	defaultModel string,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		gateway:      gateway,
		directory:    directory,
		resolver:     resolver,
		loader:       loader,
		defaultModel: defaultModel,
		logger:       logging.NewComponentLogger(logger, "tools"),
		newID:        func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterAll registers every tool this service exposes.
func (s *Service) RegisterAll(registry *Registry) error {
	for _, tool := range []Tool{
		s.chatCompletionTool(),
		s.analyzeImageTool(),
		s.multiImageAnalysisTool(),
		s.searchModelsTool(),
		s.modelInfoTool(),
		s.validateModelTool(),
	} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// refreshDirectory replaces the directory from a fresh listing and persists
// the snapshot best-effort. Zero retries here: ListModels surfaces the
// classified error and the caller decides what the user sees.
func (s *Service) refreshDirectory(ctx context.Context) error {
	models, err := s.gateway.ListModels(ctx)
	if err != nil {
		return err
	}
	s.directory.SetAll(models)
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, models, s.directory.FetchedAt()); err != nil {
			s.logger.Warn("snapshot save failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "snapshot_save_failed"),
				logging.String(logging.FieldImpact, "next start will begin with a cold catalog"))
		}
	}
	return nil
}

// apiErrorResult renders a classified upstream failure as a tool result.
func (s *Service) apiErrorResult(requestID, tool string, err error) Result {
	s.logger.Error("tool call failed",
		logging.String(logging.FieldTool, tool),
		logging.String(logging.FieldRequestID, requestID),
		logging.Error(err))

	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		return Errorf("%s request failed (%s): %s", tool, apiErr.Kind, errorText(apiErr)).
			withMeta("request_id", requestID).
			withMeta("classification", apiErr.Kind.String())
	}
	return Errorf("%s request failed: %v", tool, err).withMeta("request_id", requestID)
}

func errorText(apiErr *openrouter.APIError) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if apiErr.Err != nil {
		return apiErr.Err.Error()
	}
	return "no detail from upstream"
}

// invalidParams renders an argument failure and closes out the call log.
func (s *Service) invalidParams(tool, requestID string, start time.Time, format string, args ...any) Result {
	result := Errorf("invalid parameters: "+format, args...).withMeta("request_id", requestID)
	s.finished(tool, requestID, start, true)
	return result
}

func (s *Service) started(tool, requestID string) time.Time {
	s.logger.Debug("tool call started",
		logging.String(logging.FieldTool, tool),
		logging.String(logging.FieldRequestID, requestID))
	return time.Now()
}

func (s *Service) finished(tool, requestID string, start time.Time, isError bool) {
	s.logger.Info("tool call finished",
		logging.String(logging.FieldTool, tool),
		logging.String(logging.FieldRequestID, requestID),
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("is_error", isError))
}
