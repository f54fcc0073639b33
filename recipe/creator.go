package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/krishkalaria12/recipe-serve/models"
	"github.com/krishkalaria12/recipe-serve/storage"
	"golang.org/x/sync/errgroup"
)

// Attachment is an uploaded image waiting to be staged.
type Attachment struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

func FromFileHeader(fh *multipart.FileHeader) Attachment {
	return Attachment{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func FromBytes(filename string, data []byte) Attachment {
	return Attachment{
		Filename: filename,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// AttachmentError reports the attachment that aborted a request.
type AttachmentError struct {
	Index    int
	Filename string
	Stage    string
	Err      error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("%s attachment %d (%s): %v", e.Stage, e.Index, e.Filename, e.Err)
}

func (e *AttachmentError) Unwrap() error {
	return e.Err
}

// Stager is the local staging area.
type Stager interface {
	Write(filename string, r io.Reader) (string, error)
	Delete(path string) error
}

type creatorStore interface {
	FindUserByID(ctx context.Context, id uint) (models.User, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
}

type CreateInput struct {
	Fields        models.RecipeFields
	Attachments   []Attachment
	ShowcaseIndex *int
	OwnerID       uint
	Policy        Policy
}

// Creator runs the recipe creation pipeline: stage, upload, pick the
// showcase, clean up, then persist and link in one transaction.
type Creator struct {
	store       creatorStore
	stager      Stager
	assets      storage.AssetStore
	logger      *slog.Logger
	concurrency int
}

func NewCreator(store creatorStore, stager Stager, assets storage.AssetStore, logger *slog.Logger, concurrency int) *Creator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Creator{
		store:       store,
		stager:      stager,
		assets:      assets,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Create either persists a recipe whose images all exist remotely, or
// fails before anything is persisted. Uploaded images are removed again
// when the recipe cannot be saved.
func (c *Creator) Create(ctx context.Context, in CreateInput) (models.Recipe, error) {
	if err := ValidateFields(in.Fields); err != nil {
		return models.Recipe{}, err
	}
	if _, err := c.store.FindUserByID(ctx, in.OwnerID); err != nil {
		return models.Recipe{}, err
	}

	policy := in.Policy.withDefaults()
	namespace := storage.Namespace(in.OwnerID)
	log := c.logger.With("owner_id", in.OwnerID, "policy", string(policy.OnAttachmentFailure))

	staged, stageErr := c.stage(in.Attachments, policy, log)
	var refs []string
	var uploadErr error
	if stageErr == nil {
		refs, uploadErr = c.upload(ctx, in.Attachments, staged, namespace, policy, log)
	}
	c.cleanup(staged, log)

	if stageErr != nil {
		return models.Recipe{}, stageErr
	}
	if uploadErr != nil {
		c.compensate(ctx, namespace, refs, log)
		return models.Recipe{}, uploadErr
	}

	images := compact(refs)
	recipe := models.Recipe{
		Title:         in.Fields.Title,
		Ingredients:   nonNil(in.Fields.Ingredients),
		Instructions:  nonNil(in.Fields.Instructions),
		Images:        images,
		ShowcaseImage: pickShowcase(in.ShowcaseIndex, refs, policy.ShowcaseIndexing, log),
		UserID:        in.OwnerID,
	}

	if err := c.store.CreateRecipe(ctx, &recipe); err != nil {
		c.compensate(ctx, namespace, images, log)
		return models.Recipe{}, fmt.Errorf("persist recipe: %w", err)
	}

	log.Info("recipe created",
		"recipe_id", recipe.ID,
		"attachments", len(in.Attachments),
		"images", len(images),
	)
	return recipe, nil
}

// stage returns one path per attachment, blank where staging failed.
func (c *Creator) stage(attachments []Attachment, policy Policy, log *slog.Logger) ([]string, error) {
	paths := make([]string, len(attachments))
	for i, att := range attachments {
		path, err := stageOne(c.stager, att)
		if err != nil {
			if policy.OnAttachmentFailure == AbortOnFailure {
				return paths, &AttachmentError{Index: i, Filename: att.Filename, Stage: "stage", Err: err}
			}
			log.Warn("skipping attachment, staging failed", "index", i, "filename", att.Filename, "error", err)
			continue
		}
		paths[i] = path
	}
	return paths, nil
}

func stageOne(stager Stager, att Attachment) (string, error) {
	if att.Open == nil {
		return "", errors.New("attachment has no content")
	}
	rc, err := att.Open()
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer rc.Close()
	return stager.Write(att.Filename, rc)
}

// upload returns one reference per staged path, blank where nothing was
// staged or the upload failed. Slots are index addressed so the final
// order follows submission order whatever order uploads finish in.
func (c *Creator) upload(ctx context.Context, attachments []Attachment, staged []string, namespace string, policy Policy, log *slog.Logger) ([]string, error) {
	refs := make([]string, len(staged))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, path := range staged {
		if path == "" {
			continue
		}
		i, path := i, path
		g.Go(func() error {
			ref, err := c.assets.Upload(gctx, path, namespace)
			if err != nil {
				if policy.OnAttachmentFailure == AbortOnFailure {
					return &AttachmentError{Index: i, Filename: attachments[i].Filename, Stage: "upload", Err: err}
				}
				log.Warn("skipping attachment, upload failed", "index", i, "filename", attachments[i].Filename, "error", err)
				return nil
			}
			refs[i] = ref
			return nil
		})
	}

	err := g.Wait()
	return refs, err
}

func (c *Creator) cleanup(staged []string, log *slog.Logger) {
	for _, path := range staged {
		if path == "" {
			continue
		}
		if err := c.stager.Delete(path); err != nil {
			log.Error("failed to delete staged file", "path", path, "error", err)
		}
	}
}

// compensate removes assets uploaded by a request that did not produce a
// recipe. It outlives request cancellation.
func (c *Creator) compensate(ctx context.Context, namespace string, refs []string, log *slog.Logger) {
	ids := storage.AssetIDsFromRefs(refs)
	if len(ids) == 0 {
		return
	}
	if err := c.assets.BulkDelete(context.WithoutCancel(ctx), namespace, ids); err != nil {
		log.Error("failed to remove orphaned assets", "assets", ids, "error", err)
	}
}

func pickShowcase(index *int, refs []string, indexing ShowcaseIndexing, log *slog.Logger) *string {
	if index == nil {
		return nil
	}
	i := *index

	candidates := refs
	if indexing == IndexSuccessful {
		candidates = compact(refs)
	}
	if i < 0 || i >= len(candidates) {
		return nil
	}
	if candidates[i] == "" {
		log.Warn("showcase attachment was not uploaded, recipe has no showcase", "showcase_index", i)
		return nil
	}
	ref := candidates[i]
	return &ref
}

func compact(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
