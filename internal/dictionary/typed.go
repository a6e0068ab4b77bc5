package dictionary

import (
	"context"
	"fmt"

	"github.com/conduit-lang/descriptor/internal/descriptor/model"
)

// All returns every entity of the described type as *E
func All[E any](ctx context.Context, dict PaginatedDictionary, desc *model.EntityDescriptor) ([]*E, error) {
	entities, err := dict.Lookup(ctx, desc)
	if err != nil {
		return nil, err
	}
	return cast[E](entities)
}

// Page returns up to count entities starting at row as *E
func Page[E any](ctx context.Context, dict PaginatedDictionary, desc *model.EntityDescriptor, row, count int) ([]*E, error) {
	entities, err := dict.LookupPaginated(ctx, desc, row, count)
	if err != nil {
		return nil, err
	}
	return cast[E](entities)
}

// Find returns the entity with the given key as *E
func Find[E any](ctx context.Context, dict PaginatedDictionary, desc *model.KeyedEntityDescriptor, key any) (*E, bool, error) {
	entity, found, err := dict.LookupKey(ctx, desc, key)
	if err != nil || !found {
		return nil, found, err
	}
	typed, ok := entity.(*E)
	if !ok {
		return nil, false, fmt.Errorf("dictionary: entity is %T, not %T", entity, typed)
	}
	return typed, true, nil
}

func cast[E any](entities []any) ([]*E, error) {
	out := make([]*E, 0, len(entities))
	for _, entity := range entities {
		typed, ok := entity.(*E)
		if !ok {
			return nil, fmt.Errorf("dictionary: entity is %T, not %T", entity, typed)
		}
		out = append(out, typed)
	}
	return out, nil
}
