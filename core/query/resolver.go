package query

import (
	"context"
	"fmt"

	"github.com/huangsam/tenure/internal/contract"
)

// Resolver looks up organization ids in the identity tables reachable through exec.
type Resolver struct {
	exec contract.Executor
	opts SourceOptions
}

var _ contract.OrgResolver = &Resolver{} // Compile-time check

// NewResolver returns an OrgResolver over the organizations table.
func NewResolver(exec contract.Executor, opts SourceOptions) *Resolver {
	return &Resolver{exec: exec, opts: opts}
}

// ResolveOrganizations implements contract.OrgResolver. Unknown names are
// absent from the result.
func (r *Resolver) ResolveOrganizations(ctx context.Context, names []string) (map[string]int64, error) {
	rows, err := NewQueryBuilder(NewOrganizations(r.opts)).
		SelectColumns(
			As(Col(RelOrganizations, "id"), "id"),
			As(Col(RelOrganizations, "name"), "name"),
		).
		Filter(In(Col(RelOrganizations, "name"), names...)).
		ToRows(ctx, r.exec)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve organizations: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for i, row := range rows {
		name, err := asText(row["name"])
		if err != nil {
			return nil, fmt.Errorf("organization row %d: %w", i, err)
		}
		id, err := toInt(row["id"])
		if err != nil {
			return nil, fmt.Errorf("organization row %d: %w", i, err)
		}
		out[name] = int64(id)
	}
	return out, nil
}

func asText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}
