package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRoster(t *testing.T, r *Roster) {
	t.Helper()
	for i := 0; i < r.Len(); i++ {
		p := passengers(r.Len())[i]
		require.NoError(t, r.Set(i, FirstName, p.FirstName))
		require.NoError(t, r.Set(i, LastName, p.LastName))
		require.NoError(t, r.Set(i, IdentityNumber, p.IdentityNumber))
		require.NoError(t, r.Set(i, BirthDate, p.BirthDate))
		require.NoError(t, r.Set(i, Email, p.Email))
		require.NoError(t, r.Set(i, Phone, p.Phone))
	}
}

func TestRoster_InvalidEmailBlocksAdvance(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.StartSearch(oneWay(2)))

	r := RosterFor(s, false)
	fillRoster(t, r)
	require.NoError(t, r.Set(1, Email, "not-an-email"))

	err := r.Submit(s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fe, ok := verr.Field(1, Email.Key())
	require.True(t, ok)
	assert.Equal(t, "must be a valid email address", fe.Message)
	assert.Len(t, verr.Fields, 1)
	assert.Empty(t, s.Passengers())
	_, ok = s.Contact()
	assert.False(t, ok)

	// Entered data is kept for correction.
	assert.Equal(t, "not-an-email", r.Get(1, Email))
	assert.Equal(t, "bora", r.Get(1, FirstName))

	require.NoError(t, r.Set(1, Email, "bora@example.com"))
	require.NoError(t, r.Submit(s))
	assert.Len(t, s.Passengers(), 2)
}

func TestRoster_IdentityNumberDigitsOnly(t *testing.T) {
	r := NewRoster(1, false)
	require.NoError(t, r.Set(0, IdentityNumber, "123-456 789 01 99"))
	assert.Equal(t, "12345678901", r.Get(0, IdentityNumber))

	require.NoError(t, r.Set(0, IdentityNumber, "12ab3"))
	assert.Equal(t, "123", r.Get(0, IdentityNumber))
	var verr *ValidationError
	require.ErrorAs(t, r.Validate(), &verr)
	_, ok := verr.Field(0, "identityNumber")
	assert.True(t, ok)
}

func TestRoster_FieldRules(t *testing.T) {
	r := NewRoster(1, false)
	fillRoster(t, r)
	require.NoError(t, r.Set(0, FirstName, "   "))
	require.NoError(t, r.Set(0, BirthDate, time.Now().AddDate(0, 0, 2).Format(time.DateOnly)))
	require.NoError(t, r.Set(0, Phone, ""))

	var verr *ValidationError
	require.ErrorAs(t, r.Validate(), &verr)
	assert.Len(t, verr.ForPassenger(0), 3)
	fe, _ := verr.Field(0, "birthDate")
	assert.Equal(t, "must not be in the future", fe.Message)
	fe, _ = verr.Field(0, "firstName")
	assert.Equal(t, "is required", fe.Message)
}

func TestRoster_StrictPhone(t *testing.T) {
	r := NewRoster(1, true)
	fillRoster(t, r)
	require.NoError(t, r.Set(0, Phone, "5551112233"))

	var verr *ValidationError
	require.ErrorAs(t, r.Validate(), &verr)
	_, ok := verr.Field(0, "phone")
	assert.True(t, ok)

	require.NoError(t, r.Set(0, Phone, "+905551112233"))
	assert.NoError(t, r.Validate())

	lenient := NewRoster(1, false)
	fillRoster(t, lenient)
	require.NoError(t, lenient.Set(0, Phone, "5551112233"))
	assert.NoError(t, lenient.Validate())
}

func TestRoster_ContactDefaultsToFirstPassenger(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.StartSearch(oneWay(3)))
	r := RosterFor(s, false)
	assert.Equal(t, 0, r.Contact())
	assert.ErrorIs(t, r.SetContact(3), ErrInvalidIndex)
	require.NoError(t, r.SetContact(2))

	fillRoster(t, r)
	require.NoError(t, r.Submit(s))
	c, ok := s.ContactPassenger()
	require.True(t, ok)
	assert.Equal(t, "cem", c.FirstName)

	again := RosterFor(s, false)
	assert.Equal(t, 2, again.Contact())
	assert.Equal(t, "cem", again.Get(2, FirstName))
}

func TestRoster_TrimsBeforeSubmit(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.StartSearch(oneWay(1)))
	r := RosterFor(s, false)
	fillRoster(t, r)
	require.NoError(t, r.Set(0, Email, "  ada@example.com "))
	require.NoError(t, r.Submit(s))
	assert.Equal(t, "ada@example.com", s.Passengers()[0].Email)
}

func TestRoster_BirthDateUsesSessionClock(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.StartSearch(oneWay(1)))
	r := RosterFor(s, false)
	fillRoster(t, r)
	require.NoError(t, r.Set(0, BirthDate, "2024-05-21"))

	var verr *ValidationError
	require.ErrorAs(t, r.Submit(s), &verr)
	fe, ok := verr.Field(0, BirthDate.Key())
	require.True(t, ok)
	assert.Equal(t, "must not be in the future", fe.Message)
	assert.Empty(t, s.Passengers())

	require.NoError(t, r.Set(0, BirthDate, "2024-05-20"))
	require.NoError(t, r.Submit(s))
}
