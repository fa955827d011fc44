package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

type mockIngestService struct {
	got      driving.IngestRequest
	progress []driving.IngestProgress
	result   *driving.IngestResult
	err      error
}

func (m *mockIngestService) Ingest(
	_ context.Context, req driving.IngestRequest, progress func(driving.IngestProgress),
) (*driving.IngestResult, error) {
	m.got = req
	for _, p := range m.progress {
		progress(p)
	}
	return m.result, m.err
}

type mockAskService struct {
	got    driving.AskRequest
	result *driving.AskResult
	err    error
}

func (m *mockAskService) Ask(_ context.Context, req driving.AskRequest) (*driving.AskResult, error) {
	m.got = req
	return m.result, m.err
}

type mockExpandService struct {
	got    driving.ExpandRequest
	result *driving.ExpandResult
	err    error
}

func (m *mockExpandService) Expand(_ context.Context, req driving.ExpandRequest) (*driving.ExpandResult, error) {
	m.got = req
	return m.result, m.err
}

type mockCiteService struct {
	got    driving.CiteRequest
	result *driving.CiteResult
	err    error
}

func (m *mockCiteService) Cite(_ context.Context, req driving.CiteRequest) (*driving.CiteResult, error) {
	m.got = req
	return m.result, m.err
}

type mockLibraryService struct {
	items   []domain.ItemStats
	samples []driving.PageSample
	err     error
	gotN    int
}

func (m *mockLibraryService) List(_ context.Context) ([]domain.ItemStats, error) {
	return m.items, m.err
}

func (m *mockLibraryService) Get(_ context.Context, id int64) (*domain.ItemStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if m.items[i].Item.ID == id {
			return &m.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibraryService) Verify(_ context.Context, _ int64, n int) ([]driving.PageSample, error) {
	m.gotN = n
	return m.samples, m.err
}

type mockSettingsService struct {
	settings  domain.AppSettings
	set       map[string]string
	setErr    error
	provider  domain.AIProvider
	model     string
	validErr  error
	embedErr  error
	llmErr    error
	validated int
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	m.provider, m.model = provider, model
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) Validate() error {
	m.validated++
	return m.validErr
}

func (m *mockSettingsService) ValidateEmbeddingConfig(_ context.Context) error { return m.embedErr }

func (m *mockSettingsService) ValidateLLMConfig(_ context.Context) error { return m.llmErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest   *mockIngestService
	ask      *mockAskService
	expand   *mockExpandService
	cite     *mockCiteService
	library  *mockLibraryService
	settings *mockSettingsService
}

// configuredSettings returns defaults with both API keys present.
func configuredSettings() domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Embedding.APIKey = "sk-test-embedding-key"
	s.LLM.APIKey = "sk-or-test-generation-key"
	return s
}

func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		ingest:   &mockIngestService{},
		ask:      &mockAskService{},
		expand:   &mockExpandService{},
		cite:     &mockCiteService{},
		library:  &mockLibraryService{},
		settings: &mockSettingsService{settings: configuredSettings()},
	}
	SetServices(&Services{
		Ingest:   ts.ingest,
		Ask:      ts.ask,
		Expand:   ts.expand,
		Cite:     ts.cite,
		Library:  ts.library,
		Settings: ts.settings,
	})
	t.Cleanup(func() { SetServices(&Services{}) })
	return ts
}

// execute runs the root command with args and returns combined output.
// Flag values are reset afterwards so tests stay independent.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(resetFlags)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := Execute(context.Background())
	return buf.String(), err
}

func resetFlags() {
	rootCmd.SetArgs(nil)
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}
