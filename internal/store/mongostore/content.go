package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

type profileDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	model.Profile `bson:",inline"`
}

type projectDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	model.Project `bson:",inline"`
}

type skillDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	model.SkillCategory `bson:",inline"`
}

type contactDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	model.Contact `bson:",inline"`
}

var latestActive = options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

// saveDoc inserts doc under a new ObjectID when *id is empty and replaces
// the existing document otherwise.
func (s *Store) saveDoc(ctx context.Context, col string, id *string, build func(primitive.ObjectID) any) error {
	c := s.db.Collection(col)
	if *id == "" {
		oid := primitive.NewObjectID()
		if _, err := c.InsertOne(ctx, build(oid)); err != nil {
			return mapErr(err, "insert "+col)
		}
		*id = oid.Hex()
		return nil
	}

	oid, err := objectID(*id)
	if err != nil {
		return err
	}
	res, err := c.ReplaceOne(ctx, bson.M{"_id": oid}, build(oid))
	if err != nil {
		return mapErr(err, "replace "+col)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Profile and contact
// ---------------------------------------------------------------------------

// GetActiveProfile returns the most recently updated active profile.
func (s *Store) GetActiveProfile(ctx context.Context) (*model.Profile, error) {
	var d profileDoc
	if err := s.db.Collection(colProfiles).FindOne(ctx, bson.M{"isActive": true}, latestActive).Decode(&d); err != nil {
		return nil, mapErr(err, "get active profile")
	}
	p := d.Profile
	p.ID = d.ID.Hex()
	return &p, nil
}

// SaveProfile creates or replaces p.
func (s *Store) SaveProfile(ctx context.Context, p *model.Profile) error {
	now := s.now()
	if p.ID == "" {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return s.saveDoc(ctx, colProfiles, &p.ID, func(oid primitive.ObjectID) any {
		return profileDoc{ID: oid, Profile: *p}
	})
}

// GetActiveContact returns the most recently updated active contact section.
func (s *Store) GetActiveContact(ctx context.Context) (*model.Contact, error) {
	var d contactDoc
	if err := s.db.Collection(colContacts).FindOne(ctx, bson.M{"isActive": true}, latestActive).Decode(&d); err != nil {
		return nil, mapErr(err, "get active contact")
	}
	c := d.Contact
	c.ID = d.ID.Hex()
	return &c, nil
}

// SaveContact creates or replaces c.
func (s *Store) SaveContact(ctx context.Context, c *model.Contact) error {
	now := s.now()
	if c.ID == "" {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return s.saveDoc(ctx, colContacts, &c.ID, func(oid primitive.ObjectID) any {
		return contactDoc{ID: oid, Contact: *c}
	})
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

func (d projectDoc) toModel() model.Project {
	p := d.Project
	p.ID = d.ID.Hex()
	return p
}

// ListProjects returns projects passing f, ordered by order.
func (s *Store) ListProjects(ctx context.Context, f store.ProjectFilter) ([]model.Project, error) {
	filter := bson.M{}
	if f.PublishedOnly {
		filter["published"] = true
	}
	if f.FeaturedOnly {
		filter["featured"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	opts := options.Find().SetSort(byOrder)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := s.db.Collection(colProjects).Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err, "list projects")
	}
	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, "decode projects")
	}
	out := make([]model.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) findProject(ctx context.Context, filter bson.M) (*model.Project, error) {
	var d projectDoc
	if err := s.db.Collection(colProjects).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, mapErr(err, "get project")
	}
	p := d.toModel()
	return &p, nil
}

// GetProject retrieves a project by its public projectId.
func (s *Store) GetProject(ctx context.Context, projectID string, publishedOnly bool) (*model.Project, error) {
	filter := bson.M{"projectId": projectID}
	if publishedOnly {
		filter["published"] = true
	}
	return s.findProject(ctx, filter)
}

// GetProjectByID retrieves a project by ObjectID hex.
func (s *Store) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findProject(ctx, bson.M{"_id": oid})
}

// CreateProject inserts p. ID, CreatedAt and UpdatedAt are populated.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := s.now()
	p.ID = ""
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.saveDoc(ctx, colProjects, &p.ID, func(oid primitive.ObjectID) any {
		return projectDoc{ID: oid, Project: *p}
	})
}

// UpdateProject replaces the project with p.ID.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		return store.ErrNotFound
	}
	p.UpdatedAt = s.now()
	return s.saveDoc(ctx, colProjects, &p.ID, func(oid primitive.ObjectID) any {
		return projectDoc{ID: oid, Project: *p}
	})
}

// DeleteProject removes a project by ObjectID hex.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(colProjects).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr(err, "delete project")
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Skills
// ---------------------------------------------------------------------------

// ListSkillCategories returns skill categories ordered by order.
func (s *Store) ListSkillCategories(ctx context.Context, visibleOnly bool) ([]model.SkillCategory, error) {
	filter := bson.M{}
	if visibleOnly {
		filter["isVisible"] = true
	}
	cur, err := s.db.Collection(colSkills).Find(ctx, filter, options.Find().SetSort(byOrder))
	if err != nil {
		return nil, mapErr(err, "list skills")
	}
	var docs []skillDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, "decode skills")
	}
	out := make([]model.SkillCategory, 0, len(docs))
	for _, d := range docs {
		c := d.SkillCategory
		c.ID = d.ID.Hex()
		out = append(out, c)
	}
	return out, nil
}

// SaveSkillCategory creates or replaces the category keyed by CategoryID.
func (s *Store) SaveSkillCategory(ctx context.Context, c *model.SkillCategory) error {
	now := s.now()
	c.UpdatedAt = now

	var existing skillDoc
	err := s.db.Collection(colSkills).FindOne(ctx, bson.M{"categoryId": c.CategoryID}).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.ID = ""
		c.CreatedAt = now
	case err != nil:
		return mapErr(err, "find skill category")
	default:
		c.ID = existing.ID.Hex()
		c.CreatedAt = existing.CreatedAt
	}
	return s.saveDoc(ctx, colSkills, &c.ID, func(oid primitive.ObjectID) any {
		return skillDoc{ID: oid, SkillCategory: *c}
	})
}
