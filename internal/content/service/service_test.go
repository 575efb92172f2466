package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agora/internal/authorization"
	communitysvc "agora/internal/community/service"
	communitystore "agora/internal/community/store"
	"agora/internal/content/models"
	"agora/internal/content/service/mocks"
	"agora/internal/content/store"
	identity "agora/internal/identity/models"
	identitystore "agora/internal/identity/store"
	"agora/internal/platform/metrics"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/audit"
	auditpublisher "agora/pkg/platform/audit/publisher"
	auditmemory "agora/pkg/platform/audit/store/memory"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

// ServiceSuite isolates the service from its stores with gomock.
type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	posts       *mocks.MockPostStore
	comments    *mocks.MockCommentStore
	votes       *mocks.MockVoteStore
	communities *mocks.MockCommunities
	authz       *mocks.MockAuthorizer
	auditor     *mocks.MockAuditPublisher
	service     *Service
	ctx         context.Context
	now         time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.posts = mocks.NewMockPostStore(s.ctrl)
	s.comments = mocks.NewMockCommentStore(s.ctrl)
	s.votes = mocks.NewMockVoteStore(s.ctrl)
	s.communities = mocks.NewMockCommunities(s.ctrl)
	s.authz = mocks.NewMockAuthorizer(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.posts, s.comments, s.votes, s.communities, s.authz, txcontext.NewShardedMemory(time.Second),
		WithAuditPublisher(s.auditor), WithConflictRetries(2))
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) member() *identity.Member {
	m, err := identity.NewMember(id.NewMemberID(), "m", "m@example.com", true, nil, s.now)
	s.Require().NoError(err)
	return m
}

func (s *ServiceSuite) publishedPost(authorID id.MemberID) *models.Post {
	p, err := models.NewPost(id.NewPostID(), id.NewCommunityID(), authorID, models.PostKindText, "title", "body", nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(p.Publish(s.now))
	p.Version = 1
	return p
}

// fresh hands out a new copy per load, the way a store would.
func fresh(p *models.Post) func(context.Context, id.PostID) (*models.Post, error) {
	return func(context.Context, id.PostID) (*models.Post, error) {
		c := *p
		return &c, nil
	}
}

func (s *ServiceSuite) TestVoteValueCheckedBeforeAnyLookup() {
	_, err := s.service.VotePost(s.ctx, id.NewMemberID(), id.NewPostID(), 2)
	s.True(dErrors.HasCode(err, dErrors.CodeVoteValueInvalid))

	_, err = s.service.VoteComment(s.ctx, id.NewMemberID(), id.NewCommentID(), -5)
	s.True(dErrors.HasCode(err, dErrors.CodeVoteValueInvalid))
}

func (s *ServiceSuite) TestVotePostRetriesLedgerConflict() {
	voter := s.member()
	p := s.publishedPost(id.NewMemberID())

	s.authz.EXPECT().LoadActor(gomock.Any(), voter.ID).Return(voter, nil)
	s.posts.EXPECT().FindByID(gomock.Any(), p.ID).DoAndReturn(fresh(p)).Times(3)
	s.authz.EXPECT().Authorize(gomock.Any(), voter, authorization.ActionVote, authorization.Target{CommunityID: p.CommunityID}).Return(nil)
	s.votes.EXPECT().FindPostVote(gomock.Any(), p.ID, voter.ID).Return(nil, sentinel.ErrNotFound).Times(2)
	gomock.InOrder(
		s.votes.EXPECT().InsertPostVote(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		s.votes.EXPECT().InsertPostVote(gomock.Any(), gomock.Any()).Return(nil),
	)
	s.posts.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventPostVoted), e.Action)
		s.Equal(p.ID.String(), e.Subject)
		return nil
	})

	out, err := s.service.VotePost(s.ctx, voter.ID, p.ID, 1)
	s.Require().NoError(err)
	s.Equal(models.LedgerInsert, out.Op)
	s.Equal(models.VoteCounters{UpCount: 1}, out.Counters)
}

func (s *ServiceSuite) TestVotePostGivesUpAfterRepeatedConflicts() {
	voter := s.member()
	p := s.publishedPost(id.NewMemberID())

	s.authz.EXPECT().LoadActor(gomock.Any(), voter.ID).Return(voter, nil)
	s.posts.EXPECT().FindByID(gomock.Any(), p.ID).DoAndReturn(fresh(p)).Times(3)
	s.authz.EXPECT().Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.votes.EXPECT().FindPostVote(gomock.Any(), p.ID, voter.ID).Return(nil, sentinel.ErrNotFound).Times(2)
	s.votes.EXPECT().InsertPostVote(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	s.posts.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict).Times(2)

	_, err := s.service.VotePost(s.ctx, voter.ID, p.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.True(dErrors.IsRetryable(err))
}

func (s *ServiceSuite) TestVoteLedgerReadFailureIsInternal() {
	voter := s.member()
	p := s.publishedPost(id.NewMemberID())

	s.authz.EXPECT().LoadActor(gomock.Any(), voter.ID).Return(voter, nil)
	s.posts.EXPECT().FindByID(gomock.Any(), p.ID).DoAndReturn(fresh(p)).Times(2)
	s.authz.EXPECT().Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.votes.EXPECT().FindPostVote(gomock.Any(), p.ID, voter.ID).Return(nil, sentinel.ErrUnavailable)

	_, err := s.service.VotePost(s.ctx, voter.ID, p.ID, -1)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestCreatePostAuditFailureFailsTheCommand() {
	author := s.member()
	communityID := id.NewCommunityID()

	s.authz.EXPECT().LoadActor(gomock.Any(), author.ID).Return(author, nil)
	s.communities.EXPECT().GetCommunity(gomock.Any(), communityID).Return(nil, nil)
	s.authz.EXPECT().Authorize(gomock.Any(), author, authorization.ActionCreatePost, authorization.Target{CommunityID: communityID}).Return(nil)
	s.posts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))

	_, err := s.service.CreatePost(s.ctx, author.ID, CreatePostRequest{CommunityID: communityID, Title: "hi", Content: "there"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestCreatePostValidatesBeforeLoading() {
	s.Run("blank title", func() {
		_, err := s.service.CreatePost(s.ctx, id.NewMemberID(), CreatePostRequest{CommunityID: id.NewCommunityID(), Title: " ", Content: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("unknown kind", func() {
		_, err := s.service.CreatePost(s.ctx, id.NewMemberID(), CreatePostRequest{CommunityID: id.NewCommunityID(), Kind: "POLL", Title: "t", Content: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestMissingPostIsNotFound() {
	actor := s.member()
	postID := id.NewPostID()
	s.authz.EXPECT().LoadActor(gomock.Any(), actor.ID).Return(actor, nil)
	s.posts.EXPECT().FindByID(gomock.Any(), postID).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Publish(s.ctx, actor.ID, postID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestArchiveOfArchivedPostWritesNothing() {
	author := s.member()
	p := s.publishedPost(author.ID)
	p.Archive(s.now)

	s.authz.EXPECT().LoadActor(gomock.Any(), author.ID).Return(author, nil)
	s.posts.EXPECT().FindByID(gomock.Any(), p.ID).DoAndReturn(fresh(p)).Times(2)
	s.authz.EXPECT().Authorize(gomock.Any(), author, authorization.ActionArchivePost, gomock.Any()).Return(nil)

	got, err := s.service.Archive(s.ctx, author.ID, p.ID)
	s.Require().NoError(err)
	s.True(got.IsArchived())
}

func (s *ServiceSuite) TestMyPostVotesBoundsBatch() {
	ids := make([]id.PostID, models.MaxPageSize+1)
	_, err := s.service.MyPostVotes(s.ctx, id.NewMemberID(), ids)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// LifecycleSuite wires the real authorizer, community service and in-memory
// stores.
type LifecycleSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	members     *identitystore.InMemory
	votes       *store.InMemoryVotes
	audit       *auditmemory.InMemoryStore
	metrics     *metrics.Metrics
	communities *communitysvc.Service
	service     *Service
	admin       *identity.Member
	owner       *identity.Member
	author      *identity.Member
	voter       *identity.Member
	communityID id.CommunityID
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.members = identitystore.NewInMemory()
	moderators := communitystore.NewInMemoryModerators()
	bans := communitystore.NewInMemoryBans()
	s.votes = store.NewInMemoryVotes()
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	tx := txcontext.NewShardedMemory(time.Second)
	publisher := auditpublisher.NewPublisher(s.audit)

	authz := authorization.New(s.members, moderators, bans)
	s.communities = communitysvc.New(communitystore.NewInMemoryCommunities(), moderators, bans, authz, tx,
		communitysvc.WithAuditPublisher(publisher))
	s.service = New(store.NewInMemoryPosts(), store.NewInMemoryComments(), s.votes, s.communities, authz, tx,
		WithAuditPublisher(publisher), WithMetrics(s.metrics))

	s.admin = s.newMember("admin", true, identity.RoleAdmin)
	s.owner = s.newMember("owner", true)
	s.author = s.newMember("author", true)
	s.voter = s.newMember("voter", true)
	c, err := s.communities.CreateCommunity(s.ctx, s.owner.ID, communitysvc.CreateCommunityRequest{Name: "golang"})
	s.Require().NoError(err)
	s.communityID = c.ID
}

func (s *LifecycleSuite) newMember(handle string, verified bool, roles ...identity.Role) *identity.Member {
	m, err := identity.NewMember(id.NewMemberID(), handle, handle+"@example.com", verified, roles, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(s.ctx, m))
	return m
}

func (s *LifecycleSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *LifecycleSuite) draft() *models.Post {
	p, err := s.service.CreatePost(s.ctx, s.author.ID, CreatePostRequest{CommunityID: s.communityID, Title: "Hello", Content: "World"})
	s.Require().NoError(err)
	return p
}

func (s *LifecycleSuite) published() *models.Post {
	p, err := s.service.Publish(s.ctx, s.author.ID, s.draft().ID)
	s.Require().NoError(err)
	return p
}

func (s *LifecycleSuite) comment(ctx context.Context, authorID id.MemberID, postID id.PostID, parentID *id.CommentID) *models.Comment {
	c, err := s.service.CreateComment(ctx, authorID, postID, CreateCommentRequest{ParentID: parentID, Body: "a comment"})
	s.Require().NoError(err)
	return c
}

func (s *LifecycleSuite) ban(memberID id.MemberID) {
	_, err := s.communities.BanMember(s.ctx, s.owner.ID, s.communityID, communitysvc.BanRequest{MemberID: memberID, Reason: "spam"})
	s.Require().NoError(err)
}

// Scenario A: draft → published; publishing twice fails.
func (s *LifecycleSuite) TestPublishDraft() {
	p := s.draft()
	s.Equal(models.PostStatusDraft, p.Status)
	s.Nil(p.PublishedAt)

	got, err := s.service.Publish(s.at(time.Minute), s.author.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(models.PostStatusPublished, got.Status)
	s.Require().NotNil(got.PublishedAt)
	s.Equal(s.now.Add(time.Minute), *got.PublishedAt)

	_, err = s.service.Publish(s.ctx, s.author.ID, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeStatusTransitionForbidden))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LifecycleTransitions.WithLabelValues("post", "publish")))

	s.Run("only the author publishes", func() {
		other := s.draft()
		_, err := s.service.Publish(s.ctx, s.owner.ID, other.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// Scenario B: the toggle rule and its ledger operations.
func (s *LifecycleSuite) TestVoteToggle() {
	p := s.published()

	steps := []struct {
		desired int
		op      models.LedgerOp
		want    models.VoteCounters
		mine    models.VoteValue
	}{
		{1, models.LedgerInsert, models.VoteCounters{UpCount: 1}, models.VoteUp},
		{1, models.LedgerDelete, models.VoteCounters{}, models.VoteNone},
		{-1, models.LedgerInsert, models.VoteCounters{DownCount: 1}, models.VoteDown},
		{1, models.LedgerUpdate, models.VoteCounters{UpCount: 1}, models.VoteUp},
		{0, models.LedgerDelete, models.VoteCounters{}, models.VoteNone},
		{0, models.LedgerNoop, models.VoteCounters{}, models.VoteNone},
	}
	for _, step := range steps {
		out, err := s.service.VotePost(s.ctx, s.voter.ID, p.ID, step.desired)
		s.Require().NoError(err)
		s.Equal(step.op, out.Op)
		s.Equal(step.want, out.Counters)

		mine, err := s.service.MyPostVote(s.ctx, s.voter.ID, p.ID)
		s.Require().NoError(err)
		s.Equal(step.mine, mine.Vote)
	}

	got, err := s.service.GetPost(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.VoteCounters{}, got.VoteCounters)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.VotesApplied.WithLabelValues("post", "noop")))
}

func (s *LifecycleSuite) TestVoteRequiresPublishedPost() {
	p := s.draft()
	_, err := s.service.VotePost(s.ctx, s.voter.ID, p.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeVoteUnavailable))

	s.Run("unverified members cannot vote", func() {
		pub := s.published()
		_, err := s.service.VotePost(s.ctx, s.newMember("fresh", false).ID, pub.ID, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeMemberNotActive))
	})

	s.Run("unknown actor", func() {
		pub := s.published()
		_, err := s.service.VotePost(s.ctx, id.NewMemberID(), pub.ID, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// Scenario D: replies nest one level below their parent and a soft delete
// moves the post's comment count exactly once.
func (s *LifecycleSuite) TestCommentThreadAndSoftDelete() {
	p := s.published()
	n := s.newMember("n", true)

	root := s.comment(s.ctx, s.author.ID, p.ID, nil)
	s.Equal(0, root.Depth)
	reply := s.comment(s.at(time.Second), n.ID, p.ID, &root.ID)
	s.Equal(1, reply.Depth)
	s.Equal(root.ID, *reply.ParentID)

	post, err := s.service.GetPost(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), post.CommentCount)

	deleted, err := s.service.DeleteComment(s.ctx, s.author.ID, root.ID)
	s.Require().NoError(err)
	s.Equal(models.CommentStatusDeleted, deleted.Status)
	_, err = s.service.DeleteComment(s.ctx, s.author.ID, root.ID)
	s.Require().NoError(err)

	post, err = s.service.GetPost(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), post.CommentCount)

	events, err := s.audit.ListBySubject(s.ctx, root.ID.String())
	s.Require().NoError(err)
	s.Len(events, 2)

	s.Run("deleted comments are frozen", func() {
		_, err := s.service.EditComment(s.ctx, s.author.ID, root.ID, "changed")
		s.True(dErrors.HasCode(err, dErrors.CodeDeletedModificationForbidden))
		_, err = s.service.VoteComment(s.ctx, s.voter.ID, root.ID, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeVoteUnavailable))
		_, err = s.service.CreateComment(s.ctx, n.ID, p.ID, CreateCommentRequest{ParentID: &root.ID, Body: "late"})
		s.True(dErrors.HasCode(err, dErrors.CodeDeletedModificationForbidden))
	})

	s.Run("only the author edits", func() {
		_, err := s.service.EditComment(s.ctx, s.author.ID, reply.ID, "hijack")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		edited, err := s.service.EditComment(s.ctx, n.ID, reply.ID, "fixed typo")
		s.Require().NoError(err)
		s.True(edited.Edited)
		s.Equal(models.CommentBody("fixed typo"), edited.Body)
	})
}

// Scenario E: a stranger cannot archive until granted moderation.
func (s *LifecycleSuite) TestArchiveByModeratorAndRestore() {
	p := s.published()
	stranger := s.newMember("stranger", true)

	_, err := s.service.Archive(s.ctx, stranger.ID, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Require().NoError(s.communities.GrantModerator(s.ctx, s.admin.ID, s.communityID, stranger.ID))
	archived, err := s.service.Archive(s.ctx, stranger.ID, p.ID)
	s.Require().NoError(err)
	s.True(archived.IsArchived())

	again, err := s.service.Archive(s.ctx, s.author.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(archived.Version, again.Version)

	_, err = s.service.Restore(s.ctx, s.author.ID, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	restored, err := s.service.Restore(s.ctx, stranger.ID, p.ID)
	s.Require().NoError(err)
	s.True(restored.IsPublished())
	s.Equal(p.PublishedAt, restored.PublishedAt)

	_, err = s.service.Restore(s.ctx, s.admin.ID, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeStatusTransitionForbidden))

	events, err := s.audit.ListBySubject(s.ctx, p.ID.String())
	s.Require().NoError(err)
	actions := make([]string, len(events))
	for i, e := range events {
		actions[i] = e.Action
	}
	s.Equal([]string{
		string(audit.EventPostCreated),
		string(audit.EventPostPublished),
		string(audit.EventPostArchived),
		string(audit.EventPostRestored),
	}, actions)
}

func (s *LifecycleSuite) TestArchivedPostIsFrozen() {
	p := s.published()
	_, err := s.service.Archive(s.ctx, s.author.ID, p.ID)
	s.Require().NoError(err)

	_, err = s.service.Rename(s.ctx, s.author.ID, p.ID, "new title")
	s.True(dErrors.HasCode(err, dErrors.CodeArchivedModificationForbidden))
	_, err = s.service.Rewrite(s.ctx, s.author.ID, p.ID, "new content")
	s.True(dErrors.HasCode(err, dErrors.CodeArchivedModificationForbidden))
	_, err = s.service.VotePost(s.ctx, s.voter.ID, p.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeVoteUnavailable))
	_, err = s.service.CreateComment(s.ctx, s.voter.ID, p.ID, CreateCommentRequest{Body: "too late"})
	s.True(dErrors.HasCode(err, dErrors.CodeStatusTransitionForbidden))
}

func (s *LifecycleSuite) TestBanBlocksAuthoringButNotVotingOrCleanup() {
	p := s.published()
	c := s.comment(s.ctx, s.author.ID, p.ID, nil)
	pending := s.draft()
	s.ban(s.author.ID)

	_, err := s.service.CreatePost(s.ctx, s.author.ID, CreatePostRequest{CommunityID: s.communityID, Title: "t", Content: "c"})
	s.True(dErrors.HasCode(err, dErrors.CodeMemberBanned))
	_, err = s.service.Rename(s.ctx, s.author.ID, p.ID, "renamed")
	s.True(dErrors.HasCode(err, dErrors.CodeMemberBanned))
	_, err = s.service.CreateComment(s.ctx, s.author.ID, p.ID, CreateCommentRequest{Body: "hi"})
	s.True(dErrors.HasCode(err, dErrors.CodeMemberBanned))
	_, err = s.service.EditComment(s.ctx, s.author.ID, c.ID, "edit")
	s.True(dErrors.HasCode(err, dErrors.CodeMemberBanned))

	_, err = s.service.VotePost(s.ctx, s.author.ID, p.ID, 1)
	s.NoError(err)
	published, err := s.service.Publish(s.ctx, s.author.ID, pending.ID)
	s.Require().NoError(err, "publishing an existing draft is not a new authorial act")
	s.True(published.IsPublished())
	_, err = s.service.DeleteComment(s.ctx, s.author.ID, c.ID)
	s.NoError(err)
	_, err = s.service.Archive(s.ctx, s.author.ID, p.ID)
	s.NoError(err)
}

func (s *LifecycleSuite) TestMediaPostNeedsAssetsToPublish() {
	p, err := s.service.CreatePost(s.ctx, s.author.ID, CreatePostRequest{CommunityID: s.communityID, Kind: "MEDIA", Title: "pics", Content: "see below"})
	s.Require().NoError(err)

	_, err = s.service.Publish(s.ctx, s.author.ID, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeMediaAssetsRequired))

	asset := models.MediaAsset{ID: id.NewMediaID(), URL: "https://cdn.example.com/a.png", ContentType: "image/png"}
	withMedia, err := s.service.AttachMedia(s.ctx, s.author.ID, p.ID, []models.MediaAsset{asset})
	s.Require().NoError(err)
	s.Len(withMedia.Media, 1)

	published, err := s.service.Publish(s.ctx, s.author.ID, p.ID)
	s.Require().NoError(err)
	s.True(published.IsPublished())
}

func (s *LifecycleSuite) TestArchivedMediaDraftStaysOffTheFeed() {
	p, err := s.service.CreatePost(s.ctx, s.author.ID, CreatePostRequest{CommunityID: s.communityID, Kind: "MEDIA", Title: "pics", Content: "coming soon"})
	s.Require().NoError(err)
	_, err = s.service.Archive(s.ctx, s.author.ID, p.ID)
	s.Require().NoError(err)

	_, err = s.service.Restore(s.ctx, s.admin.ID, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeMediaAssetsRequired))

	stored, err := s.service.GetPost(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(stored.IsArchived())
	s.Nil(stored.PublishedAt)

	_, err = s.service.VotePost(s.ctx, s.voter.ID, p.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeVoteUnavailable))
}

func (s *LifecycleSuite) TestCreatePostInUnknownCommunity() {
	_, err := s.service.CreatePost(s.ctx, s.author.ID, CreatePostRequest{CommunityID: id.NewCommunityID(), Title: "t", Content: "c"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestConcurrentVotesMatchLedger() {
	p := s.published()
	const voters = 12

	var wg sync.WaitGroup
	errs := make([]error, voters)
	for i := range voters {
		m := s.newMember("v"+string(rune('a'+i)), true)
		desired := 1
		if i%3 == 0 {
			desired = -1
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.VotePost(s.ctx, m.ID, p.ID, desired)
		}(i)
	}

	// The same voter toggling eight times in parallel ends with no row.
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.VotePost(s.ctx, s.voter.ID, p.ID, 1)
			s.NoError(err)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		s.Require().NoError(err)
	}

	got, err := s.service.GetPost(s.ctx, p.ID)
	s.Require().NoError(err)
	sum, err := s.votes.SumPostVotes(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(sum, got.VoteCounters)
	s.Equal(models.VoteCounters{UpCount: 8, DownCount: 4}, got.VoteCounters)

	mine, err := s.service.MyPostVote(s.ctx, s.voter.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(models.VoteNone, mine.Vote)
}

func (s *LifecycleSuite) TestCommentVotesMatchLedger() {
	p := s.published()
	c := s.comment(s.ctx, s.author.ID, p.ID, nil)

	_, err := s.service.VoteComment(s.ctx, s.voter.ID, c.ID, -1)
	s.Require().NoError(err)
	out, err := s.service.VoteComment(s.ctx, s.author.ID, c.ID, 1)
	s.Require().NoError(err)
	s.Equal(models.VoteCounters{UpCount: 1, DownCount: 1}, out.Counters)

	sum, err := s.votes.SumCommentVotes(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(out.Counters, sum)

	mine, err := s.service.MyCommentVote(s.ctx, s.voter.ID, c.ID)
	s.Require().NoError(err)
	s.Equal(models.VoteDown, mine.Vote)
}

func (s *LifecycleSuite) TestGetThread() {
	p := s.published()
	first := s.comment(s.ctx, s.author.ID, p.ID, nil)
	second := s.comment(s.at(time.Minute), s.author.ID, p.ID, nil)
	reply := s.comment(s.at(time.Second), s.voter.ID, p.ID, &first.ID)

	_, err := s.service.VoteComment(s.ctx, s.voter.ID, reply.ID, 1)
	s.Require().NoError(err)

	thread, err := s.service.GetThread(s.ctx, s.voter.ID, p.ID, models.Page{})
	s.Require().NoError(err)
	s.Require().Len(thread.Comments, 3)
	s.Equal(first.ID, thread.Comments[0].ID)
	s.Equal(reply.ID, thread.Comments[1].ID)
	s.Equal(second.ID, thread.Comments[2].ID)
	s.Equal(map[id.CommentID]models.VoteValue{reply.ID: models.VoteUp}, thread.MyVotes)

	s.Run("anonymous viewers get no votes", func() {
		anon, err := s.service.GetThread(s.ctx, id.MemberID{}, p.ID, models.Page{})
		s.Require().NoError(err)
		s.Len(anon.Comments, 3)
		s.Nil(anon.MyVotes)
	})

	s.Run("paging applies to roots", func() {
		page, err := s.service.GetThread(s.ctx, s.voter.ID, p.ID, models.Page{Offset: 1, Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(page.Comments, 1)
		s.Equal(second.ID, page.Comments[0].ID)
	})

	s.Run("replies must belong to the post", func() {
		other := s.published()
		_, err := s.service.ListReplies(s.ctx, other.ID, first.ID, models.Page{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LifecycleSuite) TestMyPostVotesKeepsRequestOrder() {
	a := s.published()
	b := s.published()
	_, err := s.service.VotePost(s.ctx, s.voter.ID, b.ID, -1)
	s.Require().NoError(err)

	unknown := id.NewPostID()
	got, err := s.service.MyPostVotes(s.ctx, s.voter.ID, []id.PostID{b.ID, unknown, a.ID})
	s.Require().NoError(err)
	s.Equal([]models.MyPostVote{
		{PostID: b.ID, Vote: models.VoteDown},
		{PostID: unknown, Vote: models.VoteNone},
		{PostID: a.ID, Vote: models.VoteNone},
	}, got)
}
