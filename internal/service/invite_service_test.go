package service

import (
	"athletix/training-app/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inviteFixture struct {
	svc      InviteService
	users    *fakeUserRepo
	links    *fakeLinkRepo
	invites  *fakeInviteRepo
	coach    *domain.User
	athlete  *domain.User
	outsider *domain.User
}

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()
	users := newFakeUserRepo()
	links := newFakeLinkRepo()
	invites := newFakeInviteRepo()
	svc := NewInviteService(invites, links, users, testNotifier(), testLogger())

	f := &inviteFixture{svc: svc, users: users, links: links, invites: invites}
	f.coach = f.addUser(t, "Coach", "coach@example.com", domain.RoleCoach)
	f.athlete = f.addUser(t, "Ana", "ana@example.com", domain.RoleAthlete)
	f.outsider = f.addUser(t, "Otro", "otro@example.com", domain.RoleAthlete)
	return f
}

func (f *inviteFixture) addUser(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: role}
	id, err := f.users.Create(context.Background(), user)
	require.NoError(t, err)
	user.ID = id
	return user
}

func TestInviteRegisteredAthleteBindsImmediately(t *testing.T) {
	f := newInviteFixture(t)

	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	assert.Equal(t, domain.InvitePending, invite.Status)
	require.NotNil(t, invite.AthleteID)
	assert.Equal(t, f.athlete.ID, *invite.AthleteID)
}

func TestInviteUnknownEmailStaysUnbound(t *testing.T) {
	f := newInviteFixture(t)

	invite, err := f.svc.Invite(context.Background(), f.coach.ID, "future@example.com")
	require.NoError(t, err)

	assert.Nil(t, invite.AthleteID)
	assert.True(t, invite.RequiresSignup())
}

func TestInviteIsIdempotentWhilePending(t *testing.T) {
	f := newInviteFixture(t)

	first, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)
	second, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	invites, err := f.svc.ListCoachInvites(context.Background(), f.coach.ID)
	require.NoError(t, err)
	assert.Len(t, invites, 1)
}

func TestInviteCoachEmailRejected(t *testing.T) {
	f := newInviteFixture(t)
	other := f.addUser(t, "Coach Two", "coach2@example.com", domain.RoleCoach)

	_, err := f.svc.Invite(context.Background(), f.coach.ID, other.Email)
	assert.ErrorIs(t, err, ErrEmailBelongsToCoach)
}

func TestInviteAlreadyLinkedRejected(t *testing.T) {
	f := newInviteFixture(t)
	_, err := f.links.Create(context.Background(), &domain.CoachLink{
		CoachID: f.coach.ID, AthleteID: f.athlete.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	assert.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestRespondAcceptCreatesLink(t *testing.T) {
	f := newInviteFixture(t)
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	responded, err := f.svc.Respond(context.Background(), f.athlete.ID, invite.ID, ActionAccept)
	require.NoError(t, err)

	assert.Equal(t, domain.InviteAccepted, responded.Status)
	assert.NotNil(t, responded.RespondedAt)

	linked, err := f.links.Exists(context.Background(), f.coach.ID, f.athlete.ID)
	require.NoError(t, err)
	assert.True(t, linked)
}

func TestRespondAcceptWithExistingLinkSucceeds(t *testing.T) {
	f := newInviteFixture(t)
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	// Link created out of band (e.g. implicit link on plan assignment).
	_, err = f.links.Create(context.Background(), &domain.CoachLink{
		CoachID: f.coach.ID, AthleteID: f.athlete.ID,
	})
	require.NoError(t, err)

	responded, err := f.svc.Respond(context.Background(), f.athlete.ID, invite.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteAccepted, responded.Status)
}

func TestRespondDeclineCreatesNoLink(t *testing.T) {
	f := newInviteFixture(t)
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	responded, err := f.svc.Respond(context.Background(), f.athlete.ID, invite.ID, ActionDecline)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteDeclined, responded.Status)

	linked, err := f.links.Exists(context.Background(), f.coach.ID, f.athlete.ID)
	require.NoError(t, err)
	assert.False(t, linked)
}

func TestRespondTerminalInviteRejected(t *testing.T) {
	f := newInviteFixture(t)
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	_, err = f.svc.Respond(context.Background(), f.athlete.ID, invite.ID, ActionDecline)
	require.NoError(t, err)

	_, err = f.svc.Respond(context.Background(), f.athlete.ID, invite.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrInviteNotPending)
}

func TestRespondByWrongAthleteRejected(t *testing.T) {
	f := newInviteFixture(t)
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	_, err = f.svc.Respond(context.Background(), f.outsider.ID, invite.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestRemindOnlyOwnerAndPending(t *testing.T) {
	f := newInviteFixture(t)
	otherCoach := f.addUser(t, "Coach Two", "coach2@example.com", domain.RoleCoach)
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, f.athlete.Email)
	require.NoError(t, err)

	_, err = f.svc.Remind(context.Background(), otherCoach.ID, invite.ID)
	assert.ErrorIs(t, err, ErrInviteNotFound)

	_, err = f.svc.Remind(context.Background(), f.coach.ID, invite.ID)
	assert.NoError(t, err)

	_, err = f.svc.Respond(context.Background(), f.athlete.ID, invite.ID, ActionAccept)
	require.NoError(t, err)

	_, err = f.svc.Remind(context.Background(), f.coach.ID, invite.ID)
	assert.ErrorIs(t, err, ErrInviteNotPending)
}

func TestListAthleteInvitesBindsInvitesSentBeforeSignup(t *testing.T) {
	f := newInviteFixture(t)

	// Coach invites an email with no account.
	invite, err := f.svc.Invite(context.Background(), f.coach.ID, "nueva@example.com")
	require.NoError(t, err)
	require.Nil(t, invite.AthleteID)

	// The athlete signs up later with that email.
	newcomer := f.addUser(t, "Nueva", "nueva@example.com", domain.RoleAthlete)

	invites, err := f.svc.ListAthleteInvites(context.Background(), newcomer)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.NotNil(t, invites[0].AthleteID)
	assert.Equal(t, newcomer.ID, *invites[0].AthleteID)

	// And can respond to it.
	responded, err := f.svc.Respond(context.Background(), newcomer.ID, invites[0].ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteAccepted, responded.Status)
}

func TestReInviteAfterSignupBindsLate(t *testing.T) {
	f := newInviteFixture(t)

	first, err := f.svc.Invite(context.Background(), f.coach.ID, "nueva@example.com")
	require.NoError(t, err)
	require.Nil(t, first.AthleteID)

	newcomer := f.addUser(t, "Nueva", "nueva@example.com", domain.RoleAthlete)

	// Re-inviting the same email reuses the pending invite and binds it.
	second, err := f.svc.Invite(context.Background(), f.coach.ID, "nueva@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.AthleteID)
	assert.Equal(t, newcomer.ID, *second.AthleteID)
}

func TestRespondUnknownInvite(t *testing.T) {
	f := newInviteFixture(t)

	_, err := f.svc.Respond(context.Background(), f.athlete.ID, primitive.NewObjectID(), ActionAccept)
	assert.ErrorIs(t, err, ErrInviteNotFound)
}
