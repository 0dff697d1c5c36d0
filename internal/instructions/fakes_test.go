package instructions

import (
	"context"

	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// fakeStore is a minimal in-memory ports.Store for processor tests.
type fakeStore struct {
	attrs    map[string]interface{}
	modTypes map[string]string
	rules    []model.ModRule
}

func newFakeStore() *fakeStore {
	return &fakeStore{attrs: map[string]interface{}{}, modTypes: map[string]string{}}
}

func (s *fakeStore) ModExists(gameID, modID string) (bool, error)          { return false, nil }
func (s *fakeStore) GetMod(gameID, modID string) (ports.ModSummary, bool, error) {
	return ports.ModSummary{}, false, nil
}
func (s *fakeStore) SaveMod(gameID string, summary ports.ModSummary) error { return nil }
func (s *fakeStore) RemoveMod(gameID, modID string) error                 { return nil }
func (s *fakeStore) SetModType(gameID, modID, modType string) error {
	s.modTypes[gameID+"/"+modID] = modType
	return nil
}
func (s *fakeStore) SetEnabled(profile, gameID, modID string, enabled bool) error { return nil }
func (s *fakeStore) IsEnabled(profile, gameID, modID string) (bool, error)        { return true, nil }
func (s *fakeStore) SetAttribute(gameID, modID, key string, value interface{}) error {
	s.attrs[key] = value
	return nil
}
func (s *fakeStore) AddRule(gameID, modID string, rule model.ModRule) error {
	s.rules = append(s.rules, rule)
	return nil
}

// fakeDialogs records notifications without requiring interaction.
type fakeDialogs struct {
	notifications []string
	reportable    []bool
}

func (d *fakeDialogs) ResolveGame(ctx context.Context, candidates []string) (string, error) {
	return "", nil
}
func (d *fakeDialogs) NameCollision(ctx context.Context, existing ports.ModSummary) (ports.NameCollisionDecision, error) {
	return ports.NameCollisionCancel, nil
}
func (d *fakeDialogs) VersionChoice(ctx context.Context, prior ports.ModSummary) (ports.VersionChoiceDecision, error) {
	return ports.VersionChoiceCancel, nil
}
func (d *fakeDialogs) ContinueOnExtractionErrors(ctx context.Context, messages []string, allowContinue bool) (bool, error) {
	return false, nil
}
func (d *fakeDialogs) NotAnArchive(ctx context.Context, path string) (bool, error) {
	return false, nil
}
func (d *fakeDialogs) PasswordPrompt(ctx context.Context) (string, error) { return "", nil }
func (d *fakeDialogs) Notify(ctx context.Context, title, body string, kind ports.NotifyKind, reportable bool) {
	d.notifications = append(d.notifications, title)
	d.reportable = append(d.reportable, reportable)
}
func (d *fakeDialogs) DependencyPrompt(ctx context.Context, modName string, instCount, dlCount int, errs []model.DependencyError) (ports.DependencyDecision, error) {
	return ports.DependencyCancel, nil
}
func (d *fakeDialogs) RecommendationPrompt(ctx context.Context, modName string, candidates []model.Dependency) (ports.RecommendationSelection, error) {
	return ports.RecommendationSelection{}, nil
}
