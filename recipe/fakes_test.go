package recipe

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/logging"
	"github.com/krishkalaria12/recipe-serve/models"
	"github.com/krishkalaria12/recipe-serve/staging"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory store.Store.
type memoryStore struct {
	mu        sync.Mutex
	users     map[uint]models.User
	recipes   map[uint]models.Recipe
	links     map[uint][]uint
	nextID    uint
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:   map[uint]models.User{},
		recipes: map[uint]models.Recipe{},
		links:   map[uint][]uint{},
	}
}

func (m *memoryStore) addUser(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{Name: "Cook", Email: "cook@example.com"}
	u.ID = id
	m.users[id] = u
}

func (m *memoryStore) recipeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recipes)
}

func (m *memoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	return nil
}

func (m *memoryStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *memoryStore) FindUserByID(_ context.Context, id uint) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, apperror.NotFound("user", id)
	}
	return u, nil
}

func (m *memoryStore) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	return models.User{}, apperror.NotFound("user", email)
}

func (m *memoryStore) FindUserByVerificationToken(_ context.Context, token string) (models.User, error) {
	return models.User{}, apperror.NotFound("verification token", "provided")
}

func (m *memoryStore) UserRecipeIDs(_ context.Context, userID uint) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint{}, m.links[userID]...), nil
}

func (m *memoryStore) CreateRecipe(_ context.Context, recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[recipe.UserID]; !ok {
		return apperror.NotFound("user", recipe.UserID)
	}
	m.nextID++
	recipe.ID = m.nextID
	recipe.CreatedAt = time.Now()
	m.recipes[recipe.ID] = *recipe
	m.appendLocked(recipe.UserID, recipe.ID)
	return nil
}

func (m *memoryStore) AppendUserRecipe(_ context.Context, userID, recipeID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(userID, recipeID)
	return nil
}

func (m *memoryStore) appendLocked(userID, recipeID uint) {
	for _, id := range m.links[userID] {
		if id == recipeID {
			return
		}
	}
	m.links[userID] = append(m.links[userID], recipeID)
}

func (m *memoryStore) FindRecipeByID(_ context.Context, id uint) (models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return models.Recipe{}, apperror.NotFound("recipe", id)
	}
	return r, nil
}

func (m *memoryStore) ListRecipesByOwner(ctx context.Context, userID uint) ([]models.Recipe, error) {
	return m.list(userID, false)
}

func (m *memoryStore) ListFavoriteRecipes(ctx context.Context, userID uint) ([]models.Recipe, error) {
	return m.list(userID, true)
}

func (m *memoryStore) list(userID uint, favoritesOnly bool) ([]models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return nil, apperror.NotFound("user", userID)
	}
	out := []models.Recipe{}
	for _, id := range m.links[userID] {
		r, ok := m.recipes[id]
		if !ok || (favoritesOnly && !r.IsFavorite) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryStore) UpdateRecipeFields(_ context.Context, id uint, fields models.RecipeFields) (models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return models.Recipe{}, apperror.NotFound("recipe", id)
	}
	r.Title = fields.Title
	r.Ingredients = fields.Ingredients
	r.Instructions = fields.Instructions
	m.recipes[id] = r
	return r, nil
}

func (m *memoryStore) ToggleFavorite(_ context.Context, id uint) (models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return models.Recipe{}, apperror.NotFound("recipe", id)
	}
	r.IsFavorite = !r.IsFavorite
	m.recipes[id] = r
	return r, nil
}

func (m *memoryStore) DeleteRecipeByID(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return apperror.NotFound("recipe", id)
	}
	delete(m.recipes, id)
	for user, ids := range m.links {
		kept := ids[:0]
		for _, rid := range ids {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		m.links[user] = kept
	}
	return nil
}

// fakeAssets names each asset after the staged file content, so tests can
// tell which attachment ended up where. Content starting with "fail" fails.
type fakeAssets struct {
	mu        sync.Mutex
	objects   map[string]bool
	deleted   map[string][]string
	deleteErr error
	jitter    bool
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{objects: map[string]bool{}, deleted: map[string][]string{}}
}

func (f *fakeAssets) Upload(ctx context.Context, localPath, namespace string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	content := string(data)
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}
	if strings.HasPrefix(content, "fail") {
		return "", errors.New("remote store rejected " + content)
	}
	key := namespace + "/" + content
	f.mu.Lock()
	f.objects[key] = true
	f.mu.Unlock()
	return "https://cdn.test/" + key + filepath.Ext(localPath), nil
}

func (f *fakeAssets) BulkDelete(ctx context.Context, namespace string, assetIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[namespace] = append(f.deleted[namespace], assetIDs...)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range assetIDs {
		delete(f.objects, namespace+"/"+id)
	}
	return nil
}

func (f *fakeAssets) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// leakyStager fails to delete staged files.
type leakyStager struct {
	*staging.Area
}

func (l leakyStager) Delete(path string) error {
	return errors.New("disk is read-only")
}

type fixture struct {
	svc    *Service
	store  *memoryStore
	assets *fakeAssets
	area   *staging.Area
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	area, err := staging.NewArea(t.TempDir(), 0, 0)
	require.NoError(t, err)
	st := newMemoryStore()
	st.addUser(1)
	assets := newFakeAssets()
	return &fixture{
		svc:    NewService(st, area, assets, logging.Discard(), 3),
		store:  st,
		assets: assets,
		area:   area,
	}
}

func stagedFiles(t *testing.T, area *staging.Area) []string {
	t.Helper()
	entries, err := os.ReadDir(area.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func failingAttachment(name string) Attachment {
	return Attachment{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("client went away")
		},
	}
}

func intPtr(i int) *int {
	return &i
}
