package service

import (
	"errors"
	"testing"

	"github.com/newsroom/internal/db"
)

func seedArticleWithAuthor(t *testing.T, fx *testFixture) (*db.User, *db.Article) {
	t.Helper()
	user, err := fx.users.Register(RegisterInput{Name: "Writer", Email: "writer@example.com", Password: "secret12"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	published := db.StatusPublished
	article, err := fx.articles.Create(ArticleInput{
		Title:            "Commented Story",
		ShortDescription: "desc",
		Content:          "content",
		Category:         "india",
		Status:           &published,
		AuthorID:         user.ID,
	})
	if err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return user, article
}

type testFixture struct {
	users    *UserService
	articles *ArticleService
	comments *CommentService
}

func setupCommentFixture(t *testing.T) *testFixture {
	t.Helper()
	gdb := setupServiceTestDB(t)
	return &testFixture{
		users:    NewUserService(gdb),
		articles: NewArticleService(gdb),
		comments: NewCommentService(gdb),
	}
}

func TestCommentDefaultsToApproved(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	comment, err := fx.comments.Create(article.ID, user.ID, nil, "First!")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if comment.Status != db.CommentApproved {
		t.Fatalf("expected approved default, got %s", comment.Status)
	}

	views, err := fx.comments.ApprovedForArticle(article.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 visible comment, got %d", len(views))
	}
}

func TestCommentsClosedArticleRejectsComment(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	closed := false
	if _, err := fx.articles.Update(article.ID, ArticleInput{AllowComments: &closed}); err != nil {
		t.Fatalf("close comments: %v", err)
	}

	if _, err := fx.comments.Create(article.ID, user.ID, nil, "Too late"); !errors.Is(err, ErrCommentsClosed) {
		t.Fatalf("expected ErrCommentsClosed, got %v", err)
	}
}

func TestLikeIsIdempotent(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	comment, err := fx.comments.Create(article.ID, user.ID, nil, "Nice read")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := fx.comments.Like(comment.ID, user.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := fx.comments.Like(comment.ID, user.ID); err != nil {
		t.Fatalf("like twice: %v", err)
	}

	count, err := fx.comments.LikeCount(comment.ID)
	if err != nil {
		t.Fatalf("like count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected like count 1, got %d", count)
	}

	if err := fx.comments.Unlike(comment.ID, user.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	count, err = fx.comments.LikeCount(comment.ID)
	if err != nil {
		t.Fatalf("like count after unlike: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected like count 0, got %d", count)
	}
}

func TestReportOncePerUser(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	comment, err := fx.comments.Create(article.ID, user.ID, nil, "Spammy text")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := fx.comments.Report(comment.ID, user.ID, "spam"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := fx.comments.Report(comment.ID, user.ID, "spam again"); err != nil {
		t.Fatalf("report twice: %v", err)
	}

	count, err := fx.comments.ReportCount(comment.ID)
	if err != nil {
		t.Fatalf("report count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected report count 1, got %d", count)
	}
}

func TestReplyNestingIsOneLevel(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	top, err := fx.comments.Create(article.ID, user.ID, nil, "Top level")
	if err != nil {
		t.Fatalf("create top comment: %v", err)
	}
	reply, err := fx.comments.Create(article.ID, user.ID, &top.ID, "A reply")
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	nested, err := fx.comments.Create(article.ID, user.ID, &reply.ID, "Reply to reply")
	if err != nil {
		t.Fatalf("create nested reply: %v", err)
	}
	if nested.ParentID == nil || *nested.ParentID != top.ID {
		t.Fatalf("expected nested reply to attach to top comment, got parent %v", nested.ParentID)
	}

	views, err := fx.comments.ApprovedForArticle(article.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 top-level comment, got %d", len(views))
	}
	if len(views[0].Replies) != 2 {
		t.Fatalf("expected 2 replies under top comment, got %d", len(views[0].Replies))
	}
}

func TestRejectedCommentHiddenFromListing(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	comment, err := fx.comments.Create(article.ID, user.ID, nil, "Borderline")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := fx.comments.SetStatus(comment.ID, db.CommentRejected); err != nil {
		t.Fatalf("reject comment: %v", err)
	}

	views, err := fx.comments.ApprovedForArticle(article.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected rejected comment hidden, got %d visible", len(views))
	}
}

func TestEditCommentMarksEditedAndChecksOwner(t *testing.T) {
	fx := setupCommentFixture(t)
	user, article := seedArticleWithAuthor(t, fx)

	other, err := fx.users.Register(RegisterInput{Name: "Other", Email: "other@example.com", Password: "secret12"})
	if err != nil {
		t.Fatalf("register other user: %v", err)
	}

	comment, err := fx.comments.Create(article.ID, user.ID, nil, "Original text")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := fx.comments.Edit(comment.ID, other.ID, "Hijacked"); !errors.Is(err, ErrInvalidCommentEdit) {
		t.Fatalf("expected ErrInvalidCommentEdit, got %v", err)
	}

	edited, err := fx.comments.Edit(comment.ID, user.ID, "Fixed a typo")
	if err != nil {
		t.Fatalf("edit comment: %v", err)
	}
	if !edited.IsEdited || edited.EditedAt == nil {
		t.Fatal("expected edited flag and timestamp to be set")
	}
	if edited.Content != "Fixed a typo" {
		t.Fatalf("unexpected content %q", edited.Content)
	}
}
