package schema

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Manager provisions and probes collections for a single database. It
// borrows the *mongo.Database handle; it never closes the client.
type Manager struct {
	db     *mongo.Database
	prefix string
}

// New returns a schema Manager scoped to db, namespacing every collection
// name with prefix.
func New(db *mongo.Database, prefix string) *Manager {
	return &Manager{db: db, prefix: prefix}
}

// Name returns the fully prefixed collection name.
func (m *Manager) Name(collection string) string {
	return m.prefix + collection
}

// Collection returns a handle for the prefixed collection.
func (m *Manager) Collection(collection string) *mongo.Collection {
	return m.db.Collection(m.Name(collection))
}

// EnsureCollections creates every collection this core uses if missing, with
// a "warn, don't reject" JSON-schema validator on the four that carry one.
// Idempotent: existing collections (and validators) are left untouched.
func (m *Manager) EnsureCollections(ctx context.Context) error {
	existing, err := m.listCollectionNames(ctx)
	if err != nil {
		return err
	}

	for _, coll := range AllCollections {
		name := m.Name(coll)
		if existing[name] {
			continue
		}
		opts := options.CreateCollection()
		if v := validatorFor(coll); v != nil {
			opts = opts.SetValidator(v).
				SetValidationAction("warn").
				SetValidationLevel("moderate")
		}
		if err := m.db.CreateCollection(ctx, name, opts); err != nil {
			// A concurrent creator racing us is not an error.
			var cmdErr mongo.CommandError
			if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *Manager) listCollectionNames(ctx context.Context) (map[string]bool, error) {
	names, err := m.db.ListCollectionNames(ctx, struct{}{})
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

// EnsureSchemaValidation (re)applies the warn-mode validator to a collection
// that already exists, via collMod. Safe to call on every startup.
func (m *Manager) EnsureSchemaValidation(ctx context.Context, collection string) error {
	v := validatorFor(collection)
	if v == nil {
		return nil
	}
	return m.db.RunCommand(ctx, collModValidator(m.Name(collection), v)).Err()
}

func collModValidator(name string, validator interface{}) interface{} {
	return struct {
		CollMod          string      `bson:"collMod"`
		Validator        interface{} `bson:"validator"`
		ValidationAction string      `bson:"validationAction"`
		ValidationLevel  string      `bson:"validationLevel"`
	}{
		CollMod:          name,
		Validator:        validator,
		ValidationAction: "warn",
		ValidationLevel:  "moderate",
	}
}
