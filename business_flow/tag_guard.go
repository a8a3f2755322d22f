package businessflow

import (
	"context"

	"github.com/ixianhq/ixian-server/models"
)

// TagNameIndex is the lookup the guard needs from the tag store
type TagNameIndex interface {
	LiveByName(ctx context.Context, name string) (*models.Tag, error)
}

// TagGuard enforces tag business rules before a mutation reaches the store:
// name uniqueness among live tags and protection of default tags from
// deletion. Name comparison is a case-sensitive exact match with no Unicode
// normalization; "Work" and "work" are distinct tags.
type TagGuard struct {
	tags TagNameIndex
}

// NewTagGuard creates a tag guard backed by the given name index
func NewTagGuard(tags TagNameIndex) *TagGuard {
	return &TagGuard{tags: tags}
}

// Check implements Guard for tags. Violations come back as *BusinessError
// so the engine drops only the offending record.
func (g *TagGuard) Check(ctx context.Context, incoming *models.Tag, current *models.Tag, exists bool) error {
	if incoming.DeletedAt != nil {
		if exists && current.IsDefault {
			return NewBusinessError("DEFAULT_TAG_PROTECTED", "default tags cannot be deleted", ErrDefaultTagProtected)
		}
		// A deletion carries no live name, so uniqueness does not apply
		return nil
	}

	// The default flag is server-owned; clients cannot strip it to sneak a
	// default tag past deletion protection on a later sync
	if exists {
		incoming.IsDefault = current.IsDefault
	}

	holder, err := g.tags.LiveByName(ctx, incoming.Name)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != incoming.ID {
		return NewBusinessErrorf("TAG_NAME_EXISTS", "tag %q already exists", ErrTagNameExists, incoming.Name)
	}

	return nil
}
