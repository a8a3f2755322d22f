package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/utils"
)

// fakeTagIndex answers LiveByName from a fixed map
type fakeTagIndex struct {
	byName map[string]*models.Tag
	err    error
}

func (f *fakeTagIndex) LiveByName(_ context.Context, name string) (*models.Tag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byName[name], nil
}

func newTag(name string, isDefault bool) *models.Tag {
	return &models.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     "#14b8a6",
		IsDefault: isDefault,
		CreatedAt: 1000,
		UpdatedAt: 1000,
	}
}

func TestTagGuardAllowsFreshName(t *testing.T) {
	guard := NewTagGuard(&fakeTagIndex{byName: map[string]*models.Tag{}})

	err := guard.Check(context.Background(), newTag("Errands", false), nil, false)
	assert.NoError(t, err)
}

func TestTagGuardRejectsNameHeldByAnotherTag(t *testing.T) {
	holder := newTag("Work", true)
	guard := NewTagGuard(&fakeTagIndex{byName: map[string]*models.Tag{"Work": holder}})

	err := guard.Check(context.Background(), newTag("Work", false), nil, false)
	require.Error(t, err)

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "TAG_NAME_EXISTS", be.Code)
	assert.True(t, errors.Is(err, ErrTagNameExists))
}

func TestTagGuardAllowsSelfRename(t *testing.T) {
	existing := newTag("Chores", false)
	guard := NewTagGuard(&fakeTagIndex{byName: map[string]*models.Tag{"Chores": existing}})

	// Re-upload of the same tag under its own name is not a conflict
	renamed := *existing
	renamed.UpdatedAt = 2000
	err := guard.Check(context.Background(), &renamed, existing, true)
	assert.NoError(t, err)
}

func TestTagGuardNameIsCaseSensitive(t *testing.T) {
	holder := newTag("Work", true)
	guard := NewTagGuard(&fakeTagIndex{byName: map[string]*models.Tag{"Work": holder}})

	err := guard.Check(context.Background(), newTag("work", false), nil, false)
	assert.NoError(t, err)
}

func TestTagGuardProtectsDefaultFromDeletion(t *testing.T) {
	existing := newTag("General", true)
	guard := NewTagGuard(&fakeTagIndex{byName: map[string]*models.Tag{"General": existing}})

	deletion := *existing
	deletion.UpdatedAt = 2000
	deletion.DeletedAt = utils.ToPtr(int64(2000))

	err := guard.Check(context.Background(), &deletion, existing, true)
	require.Error(t, err)

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "DEFAULT_TAG_PROTECTED", be.Code)
	assert.True(t, errors.Is(err, ErrDefaultTagProtected))
}

func TestTagGuardAllowsDeletingOrdinaryTag(t *testing.T) {
	existing := newTag("Chores", false)
	// LiveByName must not even be consulted for deletions
	guard := NewTagGuard(&fakeTagIndex{err: errors.New("index should not be queried")})

	deletion := *existing
	deletion.UpdatedAt = 2000
	deletion.DeletedAt = utils.ToPtr(int64(2000))

	err := guard.Check(context.Background(), &deletion, existing, true)
	assert.NoError(t, err)
}

func TestTagGuardPinsDefaultFlagToServerValue(t *testing.T) {
	existing := newTag("General", true)
	guard := NewTagGuard(&fakeTagIndex{byName: map[string]*models.Tag{"General": existing}})

	// A client stripping is_default must not demote the server's copy
	update := *existing
	update.IsDefault = false
	update.UpdatedAt = 2000

	err := guard.Check(context.Background(), &update, existing, true)
	require.NoError(t, err)
	assert.True(t, update.IsDefault)
}

func TestTagGuardPropagatesIndexFailure(t *testing.T) {
	guard := NewTagGuard(&fakeTagIndex{err: errors.New("connection refused")})

	err := guard.Check(context.Background(), newTag("Work", false), nil, false)
	require.Error(t, err)

	var be *BusinessError
	assert.False(t, errors.As(err, &be))
}
