//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agora/internal/community/models"
	"agora/internal/community/store"
	identity "agora/internal/identity/models"
	identitystore "agora/internal/identity/store"
	"agora/internal/platform/postgres"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	"agora/pkg/testutil/containers"
)

type PostgresCommunitySuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	members     *identitystore.PostgresStore
	communities *store.PostgresCommunities
	moderators  *store.PostgresModerators
	bans        *store.PostgresBans
	now         time.Time
}

func TestPostgresCommunitySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCommunitySuite))
}

func (s *PostgresCommunitySuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.members = identitystore.NewPostgres(s.postgres.DB)
	s.communities = store.NewPostgresCommunities(s.postgres.DB)
	s.moderators = store.NewPostgresModerators(s.postgres.DB)
	s.bans = store.NewPostgresBans(s.postgres.DB)
}

func (s *PostgresCommunitySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresCommunitySuite) member(handle string) *identity.Member {
	m, err := identity.NewMember(id.NewMemberID(), handle, handle+"@example.com", true, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(context.Background(), m))
	return m
}

func (s *PostgresCommunitySuite) community(name string, owner id.MemberID) *models.Community {
	c, err := models.NewCommunity(id.NewCommunityID(), models.CommunityNameKey(name), "", "about "+name, owner, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.communities.Create(context.Background(), c))
	return c
}

func (s *PostgresCommunitySuite) TestCommunityNameIsUnique() {
	ctx := context.Background()
	owner := s.member("owner")
	c := s.community("golang", owner.ID)

	got, err := s.communities.FindByNameKey(ctx, "golang")
	s.Require().NoError(err)
	s.Equal(c.ID, got.ID)
	s.Equal("golang", got.DisplayName)

	dup, err := models.NewCommunity(id.NewCommunityID(), "golang", "", "", owner.ID, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.communities.Create(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresCommunitySuite) TestModeratorGrants() {
	ctx := context.Background()
	owner := s.member("owner")
	c := s.community("rust", owner.ID)

	grant := &models.ModeratorGrant{CommunityID: c.ID, MemberID: owner.ID, GrantedBy: owner.ID, GrantedAt: s.now}
	s.Require().NoError(s.moderators.Grant(ctx, grant))
	s.ErrorIs(s.moderators.Grant(ctx, grant), sentinel.ErrConflict)

	ok, err := s.moderators.IsModerator(ctx, c.ID, owner.ID)
	s.Require().NoError(err)
	s.True(ok)

	grants, err := s.moderators.ListByCommunity(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(grants, 1)
	s.True(grants[0].GrantedAt.Equal(s.now))

	s.Require().NoError(s.moderators.Revoke(ctx, c.ID, owner.ID))
	s.ErrorIs(s.moderators.Revoke(ctx, c.ID, owner.ID), sentinel.ErrNotFound)
}

func (s *PostgresCommunitySuite) TestBanActivityAndVersioning() {
	ctx := context.Background()
	owner := s.member("owner")
	troll := s.member("troll")
	c := s.community("zig", owner.ID)

	d := time.Hour
	temp, err := models.NewBan(id.NewBanID(), c.ID, troll.ID, owner.ID, "spam", &d, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.bans.Create(ctx, temp))

	active, err := s.bans.FindActive(ctx, c.ID, troll.ID, s.now)
	s.Require().NoError(err)
	s.Equal(temp.ID, active.ID)
	s.True(active.ExpiresAt.Equal(s.now.Add(time.Hour)))

	_, err = s.bans.FindActive(ctx, c.ID, troll.ID, s.now.Add(2*time.Hour))
	s.ErrorIs(err, sentinel.ErrNotFound, "expired bans are inactive without a write")

	perma, err := models.NewBan(id.NewBanID(), c.ID, troll.ID, owner.ID, "still spam", nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.bans.Create(ctx, perma))
	active, err = s.bans.FindActive(ctx, c.ID, troll.ID, s.now)
	s.Require().NoError(err)
	s.Equal(perma.ID, active.ID, "permanent ban outranks temporary")

	stale, err := s.bans.FindByID(ctx, perma.ID)
	s.Require().NoError(err)
	s.Require().True(perma.Lift(owner.ID, s.now))
	s.Require().NoError(s.bans.Update(ctx, perma))
	s.Equal(int64(2), perma.Version)

	stale.Reason = "rewritten"
	s.ErrorIs(s.bans.Update(ctx, stale), sentinel.ErrConflict)

	lifted, err := s.bans.FindByID(ctx, perma.ID)
	s.Require().NoError(err)
	s.Require().NotNil(lifted.LiftedBy)
	s.Equal(owner.ID, *lifted.LiftedBy)

	all, err := s.bans.ListByCommunity(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PostgresCommunitySuite) TestRollbackDiscardsBan() {
	owner := s.member("owner")
	troll := s.member("troll")
	c := s.community("elixir", owner.ID)
	runner := postgres.NewTxRunner(s.postgres.DB)

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		b, err := models.NewBan(id.NewBanID(), c.ID, troll.ID, owner.ID, "spam", nil, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.bans.Create(ctx, b))
		return sentinel.ErrUnavailable
	})
	s.Error(err)

	_, err = s.bans.FindActive(context.Background(), c.ID, troll.ID, s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
