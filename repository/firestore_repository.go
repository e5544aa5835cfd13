package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petitionhub-backend/models"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	petitionsCollection   = "petitions"
	signaturesCollection  = "signatures"
	usersCollection       = "users"
	attachmentsCollection = "attachments"
)

// FirestorePetitionRepository stores petitions in a top-level collection with
// their signatures in a per-petition subcollection
type FirestorePetitionRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestorePetitionRepository creates a new Firestore petition repository
func NewFirestorePetitionRepository(client *firestore.Client) *FirestorePetitionRepository {
	return &FirestorePetitionRepository{client: client, now: time.Now}
}

func (r *FirestorePetitionRepository) petitions() *firestore.CollectionRef {
	return r.client.Collection(petitionsCollection)
}

func petitionFromSnapshot(snap *firestore.DocumentSnapshot) (*models.Petition, error) {
	petition := &models.Petition{}
	if err := snap.DataTo(petition); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("petition document %q: %w", snap.Ref.ID, err)
	}
	petition.ID = id
	return petition, nil
}

func petitionsFromIterator(it *firestore.DocumentIterator) ([]*models.Petition, error) {
	defer it.Stop()

	petitions := []*models.Petition{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		petition, err := petitionFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		petitions = append(petitions, petition)
	}
	return petitions, nil
}

// Create stores a new petition under a fresh UUID
func (r *FirestorePetitionRepository) Create(ctx context.Context, petition *models.Petition) error {
	const op = "repository.FirestorePetitionRepository.Create"

	now := r.now().UTC()
	petition.ID = uuid.New()
	petition.Signatures = 0
	petition.CreatedAt = now
	petition.UpdatedAt = now

	if _, err := r.petitions().Doc(petition.ID.String()).Create(ctx, petition); err != nil {
		return fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}
	return nil
}

// GetByID retrieves a petition by ID
func (r *FirestorePetitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	const op = "repository.FirestorePetitionRepository.GetByID"

	snap, err := r.petitions().Doc(id.String()).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}

	petition, err := petitionFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return petition, nil
}

// ListByCreator retrieves every petition a user created, newest first
func (r *FirestorePetitionRepository) ListByCreator(ctx context.Context, creatorID string) ([]*models.Petition, error) {
	const op = "repository.FirestorePetitionRepository.ListByCreator"

	it := r.petitions().
		Where("creatorId", "==", creatorID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	petitions, err := petitionsFromIterator(it)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return petitions, nil
}

// ListPublic retrieves public petitions matching the filter, newest first.
// Firestore has no substring search, so title search is applied after the
// query and pagination follows it.
func (r *FirestorePetitionRepository) ListPublic(ctx context.Context, filter models.PetitionFilter) ([]*models.Petition, error) {
	const op = "repository.FirestorePetitionRepository.ListPublic"

	q := r.petitions().Where("visibility", "==", string(models.VisibilityPublic))
	if filter.Category != "" {
		q = q.Where("category", "==", string(filter.Category))
	}
	q = q.OrderBy("createdAt", firestore.Desc)

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
	}

	petitions, err := petitionsFromIterator(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if search == "" {
		return petitions, nil
	}

	matched := []*models.Petition{}
	for _, p := range petitions {
		if strings.Contains(strings.ToLower(p.Title), search) {
			matched = append(matched, p)
		}
	}
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// signatureDocID derives the signature document ID from the petition and
// the lower-cased email, so a second signature by the same email collides.
func signatureDocID(petitionID uuid.UUID, email string) uuid.UUID {
	return uuid.NewSHA1(petitionID, []byte(strings.ToLower(strings.TrimSpace(email))))
}

// AddSignature stores the signature and increments the petition's counter
// in one transaction
func (r *FirestorePetitionRepository) AddSignature(ctx context.Context, sig *models.Signature) error {
	const op = "repository.FirestorePetitionRepository.AddSignature"

	petitionRef := r.petitions().Doc(sig.PetitionID.String())
	sigID := signatureDocID(sig.PetitionID, sig.Email)
	sigRef := petitionRef.Collection(signaturesCollection).Doc(sigID.String())
	signedAt := r.now().UTC()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(petitionRef); err != nil {
			return firestoreError(err, ErrAlreadyExists)
		}

		existing, err := tx.Get(sigRef)
		if err == nil && existing.Exists() {
			return ErrAlreadySigned
		}
		if err != nil && !errors.Is(firestoreError(err, ErrAlreadySigned), ErrNotFound) {
			return err
		}

		sig.ID = sigID
		sig.SignedAt = signedAt
		if err := tx.Create(sigRef, sig); err != nil {
			return err
		}
		return tx.Update(petitionRef, []firestore.Update{
			{Path: "signatures", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: signedAt},
		})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadySigned))
	}
	return nil
}

// ListSignatures retrieves signatures collected since the given time, oldest first
func (r *FirestorePetitionRepository) ListSignatures(ctx context.Context, petitionID uuid.UUID, since time.Time) ([]*models.Signature, error) {
	const op = "repository.FirestorePetitionRepository.ListSignatures"

	it := r.petitions().Doc(petitionID.String()).Collection(signaturesCollection).
		Where("signedAt", ">=", since).
		OrderBy("signedAt", firestore.Asc).
		Documents(ctx)
	defer it.Stop()

	signatures := []*models.Signature{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sig := &models.Signature{}
		if err := snap.DataTo(sig); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if id, err := uuid.Parse(snap.Ref.ID); err == nil {
			sig.ID = id
		}
		sig.PetitionID = petitionID
		signatures = append(signatures, sig)
	}
	return signatures, nil
}

// FirestoreUserRepository stores profiles in users/{uid}
type FirestoreUserRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreUserRepository creates a new Firestore user repository
func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client, now: time.Now}
}

func userFromSnapshot(snap *firestore.DocumentSnapshot) (*models.User, error) {
	user := &models.User{}
	if err := snap.DataTo(user); err != nil {
		return nil, err
	}
	user.ID = snap.Ref.ID
	return user, nil
}

// Create stores a profile keyed by UID. Emails are stored lower-cased.
func (r *FirestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	const op = "repository.FirestoreUserRepository.Create"

	if user.Role == "" {
		user.Role = models.DefaultRole
	}
	now := r.now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}
	return nil
}

// GetByID retrieves a profile by UID
func (r *FirestoreUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const op = "repository.FirestoreUserRepository.GetByID"

	snap, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}
	user, err := userFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetByEmail retrieves a profile by email, ignoring case
func (r *FirestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.FirestoreUserRepository.GetByEmail"

	it := r.client.Collection(usersCollection).
		Where("email", "==", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := userFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Update saves profile fields
func (r *FirestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	const op = "repository.FirestoreUserRepository.Update"

	user.UpdatedAt = r.now().UTC()
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Update(ctx, []firestore.Update{
		{Path: "firstName", Value: user.FirstName},
		{Path: "lastName", Value: user.LastName},
		{Path: "phoneNumber", Value: user.PhoneNumber},
		{Path: "role", Value: user.Role},
		{Path: "updatedAt", Value: user.UpdatedAt},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}
	return nil
}

// attachmentDoc is the stored shape of an attachment; UUIDs are kept as strings
type attachmentDoc struct {
	PetitionID  string    `firestore:"petitionId"`
	OwnerID     string    `firestore:"ownerId"`
	Filename    string    `firestore:"filename"`
	MimeType    string    `firestore:"mimeType"`
	Size        int64     `firestore:"size"`
	StoragePath string    `firestore:"storagePath"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// FirestoreFileRepository stores attachment records in a top-level collection
type FirestoreFileRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreFileRepository creates a new Firestore attachment repository
func NewFirestoreFileRepository(client *firestore.Client) *FirestoreFileRepository {
	return &FirestoreFileRepository{client: client, now: time.Now}
}

// Create stores an attachment record, generating the ID when unset
func (r *FirestoreFileRepository) Create(ctx context.Context, file *models.Attachment) error {
	const op = "repository.FirestoreFileRepository.Create"

	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	file.CreatedAt = r.now().UTC()
	doc := attachmentDoc{
		PetitionID:  file.PetitionID.String(),
		OwnerID:     file.OwnerID,
		Filename:    file.Filename,
		MimeType:    file.MimeType,
		Size:        file.Size,
		StoragePath: file.StoragePath,
		CreatedAt:   file.CreatedAt,
	}

	if _, err := r.client.Collection(attachmentsCollection).Doc(file.ID.String()).Create(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}
	return nil
}

func attachmentFromSnapshot(snap *firestore.DocumentSnapshot) (*models.Attachment, error) {
	var doc attachmentDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, err
	}
	petitionID, err := uuid.Parse(doc.PetitionID)
	if err != nil {
		return nil, err
	}
	return &models.Attachment{
		ID:          id,
		PetitionID:  petitionID,
		OwnerID:     doc.OwnerID,
		Filename:    doc.Filename,
		MimeType:    doc.MimeType,
		Size:        doc.Size,
		StoragePath: doc.StoragePath,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// GetByID retrieves an attachment by ID
func (r *FirestoreFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	const op = "repository.FirestoreFileRepository.GetByID"

	snap, err := r.client.Collection(attachmentsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, firestoreError(err, ErrAlreadyExists))
	}
	file, err := attachmentFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return file, nil
}

// ListByPetitionID retrieves all attachments for a petition
func (r *FirestoreFileRepository) ListByPetitionID(ctx context.Context, petitionID uuid.UUID) ([]*models.Attachment, error) {
	const op = "repository.FirestoreFileRepository.ListByPetitionID"

	it := r.client.Collection(attachmentsCollection).
		Where("petitionId", "==", petitionID.String()).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	files := []*models.Attachment{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		file, err := attachmentFromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		files = append(files, file)
	}
	return files, nil
}
