package workers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeFeedRepo is an in-memory FeedRepository enforcing the same
// (recipient, post) uniqueness the real store does. It records the size
// of every batch it receives so tests can assert on chunking.
type fakeFeedRepo struct {
	mu         sync.Mutex
	rows       map[string]models.FeedEntry
	batchSizes []int

	// insertErr, when set, is returned by every InsertBatch call.
	insertErr error
}

func newFakeFeedRepo() *fakeFeedRepo {
	return &fakeFeedRepo{rows: make(map[string]models.FeedEntry)}
}

func feedKey(recipientID uint, postID string) string {
	return fmt.Sprintf("%d:%s", recipientID, postID)
}

func (f *fakeFeedRepo) InsertBatch(_ context.Context, entries []models.FeedEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchSizes = append(f.batchSizes, len(entries))
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	var inserted int64
	for _, entry := range entries {
		key := feedKey(entry.RecipientID, entry.PostID)
		if _, exists := f.rows[key]; exists {
			continue
		}
		f.rows[key] = entry
		inserted++
	}
	return inserted, nil
}

func (f *fakeFeedRepo) ListByRecipient(_ context.Context, recipientID uint, before time.Time, limit int) ([]models.FeedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []models.FeedEntry
	for _, entry := range f.rows {
		if entry.RecipientID != recipientID {
			continue
		}
		if !before.IsZero() && !entry.CreatedAt.Before(before) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeFeedRepo) DeleteByPost(_ context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, entry := range f.rows {
		if entry.PostID == postID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeFeedRepo) DeleteByAuthor(_ context.Context, authorID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, entry := range f.rows {
		if entry.AuthorID == authorID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeFeedRepo) DeleteByRecipientAndAuthor(_ context.Context, recipientID, authorID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, entry := range f.rows {
		if entry.RecipientID == recipientID && entry.AuthorID == authorID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeFeedRepo) entriesFor(recipientID uint) []models.FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []models.FeedEntry
	for _, entry := range f.rows {
		if entry.RecipientID == recipientID {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (f *fakeFeedRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) CreateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, repositories.ErrNotFound)
}

func (f *fakeUserRepo) UpdateUser(user *models.User) error {
	return f.CreateUser(user)
}

func (f *fakeUserRepo) DeleteUser(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetUserIDsPage(afterID uint, limit int) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id := range f.users {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeUserRepo) UpdateCounter(id uint, column string, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
	}
	switch column {
	case models.ColumnFollowersCount:
		user.FollowersCount = value
	case models.ColumnFollowingCount:
		user.FollowingCount = value
	case models.ColumnPostsCount:
		user.PostsCount = value
	default:
		return fmt.Errorf("unknown counter column %q", column)
	}
	return nil
}

func (f *fakeUserRepo) IncrementFollowersCount(id uint) error { return f.add(id, "followers", 1) }
func (f *fakeUserRepo) DecrementFollowersCount(id uint) error { return f.add(id, "followers", -1) }
func (f *fakeUserRepo) IncrementFollowingCount(id uint) error { return f.add(id, "following", 1) }
func (f *fakeUserRepo) DecrementFollowingCount(id uint) error { return f.add(id, "following", -1) }
func (f *fakeUserRepo) IncrementPostsCount(id uint) error     { return f.add(id, "posts", 1) }
func (f *fakeUserRepo) DecrementPostsCount(id uint) error     { return f.add(id, "posts", -1) }

func (f *fakeUserRepo) add(id uint, which string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
	}
	switch which {
	case "followers":
		user.FollowersCount += delta
	case "following":
		user.FollowingCount += delta
	case "posts":
		user.PostsCount += delta
	}
	return nil
}

// fakeFollowRepo is an in-memory FollowRepository.
type fakeFollowRepo struct {
	mu    sync.Mutex
	edges []models.Follow
}

func newFakeFollowRepo(edges ...models.Follow) *fakeFollowRepo {
	return &fakeFollowRepo{edges: edges}
}

func (f *fakeFollowRepo) CreateFollow(follow *models.Follow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges = append(f.edges, *follow)
	return nil
}

func (f *fakeFollowRepo) DeleteFollow(followerID, followingID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, edge := range f.edges {
		if edge.FollowerID == followerID && edge.FollowingID == followingID {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("follow %d -> %d: %w", followerID, followingID, repositories.ErrNotFound)
}

func (f *fakeFollowRepo) IsFollowing(followerID, followingID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, edge := range f.edges {
		if edge.FollowerID == followerID && edge.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFollowRepo) GetFollowerIDs(userID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for _, edge := range f.edges {
		if edge.FollowingID == userID {
			ids = append(ids, edge.FollowerID)
		}
	}
	return ids, nil
}

func (f *fakeFollowRepo) GetFollowerIDsPage(userID uint, afterID uint, limit int) ([]uint, error) {
	ids, _ := f.GetFollowerIDs(userID)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var page []uint
	for _, id := range ids {
		if id > afterID {
			page = append(page, id)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeFollowRepo) GetFollowersCount(userID uint) (int64, error) {
	ids, _ := f.GetFollowerIDs(userID)
	return int64(len(ids)), nil
}

func (f *fakeFollowRepo) GetFollowingCount(userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, edge := range f.edges {
		if edge.FollowerID == userID {
			count++
		}
	}
	return count, nil
}

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	repo := &fakePostRepo{posts: make(map[string]*models.Post)}
	for _, post := range posts {
		repo.posts[post.ID.Hex()] = post
	}
	return repo
}

// newTestPost builds a post with a fresh ObjectID.
func newTestPost(authorID uint, createdAt time.Time, parent *primitive.ObjectID) *models.Post {
	return &models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		ParentID:  parent,
		Content:   "hello",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func (f *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	f.posts[post.ID.Hex()] = post
	return nil
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, repositories.ErrNotFound)
	}
	return post, nil
}

func (f *fakePostRepo) GetPostsByAuthor(_ context.Context, authorID uint, skip, limit int64) ([]models.Post, error) {
	all := f.sortedByAuthor(authorID, false)
	if skip >= int64(len(all)) {
		return nil, nil
	}
	all = all[skip:]
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakePostRepo) GetRecentTopLevelPosts(_ context.Context, authorID uint, limit int64) ([]models.Post, error) {
	posts := f.sortedByAuthor(authorID, true)
	if int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakePostRepo) CountTopLevelPosts(_ context.Context, authorID uint) (int64, error) {
	return int64(len(f.sortedByAuthor(authorID, true))), nil
}

func (f *fakePostRepo) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, repositories.ErrNotFound)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) EnsureIndexes(_ context.Context) error { return nil }

func (f *fakePostRepo) sortedByAuthor(authorID uint, topLevelOnly bool) []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	var posts []models.Post
	for _, post := range f.posts {
		if post.AuthorID != authorID {
			continue
		}
		if topLevelOnly && post.IsReply() {
			continue
		}
		posts = append(posts, *post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) enqueued() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Job(nil), q.jobs...)
}

// fakeDeadLetterRepo records dead letters in memory.
type fakeDeadLetterRepo struct {
	mu      sync.Mutex
	letters []models.DeadLetter
}

func (f *fakeDeadLetterRepo) CreateDeadLetter(letter *models.DeadLetter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.letters = append(f.letters, *letter)
	return nil
}

func (f *fakeDeadLetterRepo) GetRecentDeadLetters(limit int) ([]models.DeadLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	letters := append([]models.DeadLetter(nil), f.letters...)
	if len(letters) > limit {
		letters = letters[:limit]
	}
	return letters, nil
}

func (f *fakeDeadLetterRepo) all() []models.DeadLetter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DeadLetter(nil), f.letters...)
}
