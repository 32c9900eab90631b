package service

import (
	"context"
	"testing"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountService(products ...*domain.Product) (*AccountService, *recordingDispatcher) {
	notifier := &recordingDispatcher{}
	sut := NewAccountService(newMockUserRepository(), newMockProductRepository(products...),
		stubTokens{}, notifier, "NGN", []string{"Owner@Example.com"})
	return sut, notifier
}

func TestRegister_CreatesCustomerAndSendsWelcome(t *testing.T) {
	sut, notifier := newTestAccountService()

	res, err := sut.Register(context.Background(), RegisterInput{
		Name: " Ada ", Email: "Ada@Example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-"+res.User.ID, res.Token)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, "Ada", res.User.Name)
	assert.Equal(t, domain.RoleCustomer, res.User.Role)
	assert.Equal(t, "NGN", res.User.Settings.Currency)
	assert.NotEqual(t, "correct-horse", res.User.PasswordHash)
	assert.NotNil(t, res.User.Wishlist)
	assert.Equal(t, []notify.Template{notify.TemplateWelcome}, notifier.templates())
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	sut, _ := newTestAccountService()

	res, err := sut.Register(context.Background(), RegisterInput{
		Name: "Owner", Email: "owner@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
}

func TestRegister_Rejections(t *testing.T) {
	sut, _ := newTestAccountService()
	ctx := context.Background()
	in := RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"}

	_, err := sut.Register(ctx, in)
	require.NoError(t, err)

	in.Email = "ADA@example.com"
	_, err = sut.Register(ctx, in)
	require.ErrorIs(t, err, ErrConflict)

	_, err = sut.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	sut, _ := newTestAccountService()
	ctx := context.Background()
	_, err := sut.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	res, err := sut.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = sut.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong-horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = sut.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfileAndSettings(t *testing.T) {
	sut, _ := newTestAccountService()
	ctx := context.Background()
	res, err := sut.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	id := res.User.ID

	phone := " +234 800 "
	user, err := sut.UpdateProfile(ctx, id, ProfileInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "+234 800", user.Phone)
	assert.Equal(t, "Ada", user.Name)

	settings, err := sut.UpdateSettings(ctx, id, SettingsInput{Newsletter: true, Currency: "usd"})
	require.NoError(t, err)
	assert.True(t, settings.Newsletter)
	assert.Equal(t, "USD", settings.Currency)

	settings, err = sut.Settings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "USD", settings.Currency)

	_, err = sut.UpdateSettings(ctx, id, SettingsInput{Currency: "dollars"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = sut.Profile(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWishlist(t *testing.T) {
	hidden := testProduct("p3", "3.00")
	hidden.Active = false
	sut, _ := newTestAccountService(testProduct("p1", "1.00"), testProduct("p2", "2.00"), hidden)
	ctx := context.Background()
	res, err := sut.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	id := res.User.ID

	_, err = sut.AddToWishlist(ctx, id, "p2")
	require.NoError(t, err)
	_, err = sut.AddToWishlist(ctx, id, "p1")
	require.NoError(t, err)
	list, err := sut.AddToWishlist(ctx, id, "p2")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.Equal(t, "p1", list[1].ID)

	_, err = sut.AddToWishlist(ctx, id, "p3")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = sut.AddToWishlist(ctx, id, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	list, err = sut.RemoveFromWishlist(ctx, id, "p2")
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = sut.Wishlist(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)
}
