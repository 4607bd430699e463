package er

import (
	"errors"
	"fmt"
	"strings"

	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// Validate checks the structural contract a layout input is expected to
// satisfy:
//
//   - at least one entity, with unique non-empty names
//   - every attribute references a known entity
//   - every entity has at least one primary-key attribute
//   - every relationship references known entities and has a cardinality of
//     1:1, 1:N or M:N
//
// All problems are collected. The returned error has code
// INVALID_DOCUMENT and joins one error per problem; use [errs.Problems] to
// list them.
func Validate(doc Document) error {
	var problems []error

	if len(doc.Entities) == 0 {
		problems = append(problems, errors.New("document has no entities"))
	}

	known := make(map[string]string, len(doc.Entities))
	for _, e := range doc.Entities {
		if err := errs.ValidateName("entity", e.Name); err != nil {
			problems = append(problems, err)
			continue
		}
		key := fold(strings.TrimSpace(e.Name))
		if _, dup := known[key]; dup {
			problems = append(problems, fmt.Errorf("entity %q declared more than once", e.Name))
			continue
		}
		known[key] = e.Name
	}

	hasPK := make(map[string]bool, len(known))
	for _, a := range doc.Attributes {
		if err := errs.ValidateName("attribute", a.Name); err != nil {
			problems = append(problems, err)
			continue
		}
		key := fold(strings.TrimSpace(a.Entity))
		if _, ok := known[key]; !ok {
			problems = append(problems, fmt.Errorf("attribute %q references unknown entity %q", a.Name, a.Entity))
			continue
		}
		if a.PrimaryKey {
			hasPK[key] = true
		}
	}

	for _, e := range doc.Entities {
		key := fold(strings.TrimSpace(e.Name))
		if known[key] == e.Name && !hasPK[key] {
			problems = append(problems, fmt.Errorf("entity %q has no primary key attribute", e.Name))
		}
	}

	for _, r := range doc.Relationships {
		if err := errs.ValidateName("relationship", r.Name); err != nil {
			problems = append(problems, err)
		}
		for _, end := range []string{r.Entity1, r.Entity2} {
			if _, ok := known[fold(strings.TrimSpace(end))]; !ok {
				problems = append(problems, fmt.Errorf("relationship %q references unknown entity %q", r.Name, end))
			}
		}
		if !r.Cardinality.Valid() {
			problems = append(problems, fmt.Errorf("relationship %q has invalid cardinality %q (want 1:1, 1:N or M:N)", r.Name, r.Cardinality))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return errs.Wrap(errs.ErrCodeInvalidDocument, errors.Join(problems...),
		"document has %d problem(s)", len(problems))
}
