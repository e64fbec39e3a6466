package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

type accountDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	model.Account `bson:",inline"`
}

func (d accountDoc) toModel() *model.Account {
	a := d.Account
	a.ID = d.ID.Hex()
	if a.Permissions == nil {
		a.Permissions = []string{}
	}
	return &a
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (*model.Account, error) {
	var d accountDoc
	if err := s.db.Collection(colAccounts).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, mapErr(err, "find account")
	}
	return d.toModel(), nil
}

// FindAccountByUsername looks up an account by exact username. The value is
// always bound as a string, never as a query document.
func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.findAccount(ctx, bson.M{"username": username})
}

// GetAccount retrieves an account by ObjectID hex.
func (s *Store) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findAccount(ctx, bson.M{"_id": oid})
}

// ListAccounts returns every account ordered by username.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	cur, err := s.db.Collection(colAccounts).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, mapErr(err, "list accounts")
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, "decode accounts")
	}
	out := make([]model.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toModel())
	}
	return out, nil
}

// CountAccounts returns the number of accounts.
func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	n, err := s.db.Collection(colAccounts).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mapErr(err, "count accounts")
	}
	return n, nil
}

// CreateAccount inserts a. ID, CreatedAt and UpdatedAt are populated.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Permissions == nil {
		a.Permissions = []string{}
	}

	d := accountDoc{ID: primitive.NewObjectID(), Account: *a}
	if _, err := s.db.Collection(colAccounts).InsertOne(ctx, d); err != nil {
		return mapErr(err, "create account "+a.Username)
	}
	a.ID = d.ID.Hex()
	return nil
}

// UpdateAccountSecurity writes the counter, lock and last-login fields in
// one update.
func (s *Store) UpdateAccountSecurity(ctx context.Context, id string, u model.SecurityUpdate) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{"loginAttempts": u.LoginAttempts, "updatedAt": s.now()}
	update := bson.M{}
	switch {
	case u.LockedUntil != nil:
		set["lockedUntil"] = u.LockedUntil.UTC()
	case u.ClearLock:
		update["$unset"] = bson.M{"lockedUntil": ""}
	}
	if u.LastLoginAt != nil {
		set["lastLoginAt"] = u.LastLoginAt.UTC()
	}
	update["$set"] = set

	res, err := s.db.Collection(colAccounts).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return mapErr(err, "update account security")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetAccountPassword replaces the hash and clears the counter and lock.
func (s *Store) SetAccountPassword(ctx context.Context, id, passwordHash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set":   bson.M{"passwordHash": passwordHash, "loginAttempts": 0, "updatedAt": s.now()},
		"$unset": bson.M{"lockedUntil": ""},
	}
	res, err := s.db.Collection(colAccounts).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return mapErr(err, "set account password")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetAccountActive enables or disables an account.
func (s *Store) SetAccountActive(ctx context.Context, id string, active bool) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(colAccounts).UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": s.now()}})
	if err != nil {
		return mapErr(err, "set account active")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
