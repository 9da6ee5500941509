package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ticket/core/account"
)

func TestState_String(t *testing.T) {
	require.Equal(t, "open", Open.String())
	require.Equal(t, "resolved", Resolved.String())
	require.Equal(t, "unknown", State(0).String())
}

func TestWinner_Get(t *testing.T) {
	w := NoWinner()

	_, found := w.Get()
	require.False(t, found)
	require.False(t, w.IsSet())
	require.Equal(t, "none", w.String())

	w = WinnerOf(makeAddress(1))

	addr, found := w.Get()
	require.True(t, found)
	require.Equal(t, makeAddress(1), addr)
	require.Equal(t, makeAddress(1).String(), w.String())
}

func TestWinner_JSON(t *testing.T) {
	data, err := NoWinner().MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "null", string(data))

	var w Winner
	err = w.UnmarshalJSON(data)
	require.NoError(t, err)
	require.False(t, w.IsSet())

	data, err = WinnerOf(makeAddress(2)).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"`+makeAddress(2).String()+`"`, string(data))

	err = w.UnmarshalJSON(data)
	require.NoError(t, err)
	require.Equal(t, WinnerOf(makeAddress(2)), w)

	err = w.UnmarshalJSON([]byte(`"abc"`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid winner: ")
}

func TestContest_State(t *testing.T) {
	c := makeContest(3)
	require.Equal(t, Open, c.State())

	c.Winner = WinnerOf(makeAddress(1))
	require.Equal(t, Resolved, c.State())
}

func TestContest_Pool(t *testing.T) {
	c := makeContest(3)
	require.Equal(t, uint64(0), c.Pool())

	c.TotalTicketsSold = 2
	require.Equal(t, uint64(200), c.Pool())
}

func TestContest_Validate(t *testing.T) {
	c := makeContest(2)
	require.NoError(t, c.Validate())

	c.Name = ""
	require.EqualError(t, c.Validate(), "name must have 1 to 32 bytes")

	c = makeContest(2)
	c.Seed = make([]byte, MaxSeedLength+1)
	require.EqualError(t, c.Validate(), "seed is longer than 32 bytes")

	c = makeContest(2)
	c.TotalTicketsSold = 3
	require.EqualError(t, c.Validate(), "3 tickets sold for a capacity of 2")

	c = makeContest(2)
	c.TotalTicketsSold = 1
	require.EqualError(t, c.Validate(), "0 participants for 1 tickets sold")

	c.Participants = []account.Address{makeAddress(1)}
	require.NoError(t, c.Validate())

	c.Winner = WinnerOf(makeAddress(1))
	require.Error(t, c.Validate())
	require.Contains(t, c.Validate().Error(), "with 1/2 tickets sold")

	c.TotalTicketsSold = 2
	c.Participants = append(c.Participants, makeAddress(2))
	c.Winner = WinnerOf(makeAddress(2))
	require.NoError(t, c.Validate())

	c.Winner = NoWinner()
	require.EqualError(t, c.Validate(), "winner is none with 2/2 tickets sold")
}

func TestContest_Serialize(t *testing.T) {
	c := makeContest(2)
	c.TotalTicketsSold = 2
	c.Participants = []account.Address{makeAddress(1), makeAddress(2)}
	c.Winner = WinnerOf(makeAddress(2))

	data, err := c.Serialize()
	require.NoError(t, err)
	require.Contains(t, string(data), `"winner":"`+makeAddress(2).String()+`"`)

	res, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, c, res)

	_, err = Deserialize([]byte("{"))
	require.EqualError(t, err,
		"failed to unmarshal contest: unexpected end of JSON input")
}

func TestValidateParameters(t *testing.T) {
	err := ValidateParameters("a", "", 1, 1)
	require.NoError(t, err)

	err = ValidateParameters(strings.Repeat("a", MaxNameLength), "", 1, MaxTickets)
	require.NoError(t, err)

	err = ValidateParameters("", "", 1, 1)
	require.EqualError(t, err, "name must have 1 to 32 bytes")

	err = ValidateParameters(strings.Repeat("a", MaxNameLength+1), "", 1, 1)
	require.EqualError(t, err, "name must have 1 to 32 bytes")

	err = ValidateParameters("a", strings.Repeat("a", MaxDescriptionLength+1), 1, 1)
	require.EqualError(t, err, "description must have at most 200 bytes")

	err = ValidateParameters("a", "", 0, 1)
	require.EqualError(t, err, "ticket price must be positive")

	err = ValidateParameters("a", "", 1, 0)
	require.EqualError(t, err, "max tickets must be between 1 and 255")

	err = ValidateParameters("a", "", 1, MaxTickets+1)
	require.EqualError(t, err, "max tickets must be between 1 and 255")
}

func TestSpace(t *testing.T) {
	require.Equal(t, 372, Space(0))
	require.Equal(t, 372+5*32, Space(5))
	require.Greater(t, Space(MaxTickets), Space(MaxTickets-1))
}

// -----------------------------------------------------------------------------
// Utility functions

func makeAddress(b byte) account.Address {
	var addr account.Address
	addr[0] = b

	return addr
}

func makeContest(max uint8) Contest {
	return Contest{
		Owner:        makeAddress(0xaa),
		Name:         "contest",
		Description:  "a contest",
		TicketPrice:  100,
		MaxTickets:   max,
		Participants: []account.Address{},
		Seed:         []byte("seed"),
		Bump:         255,
		Reserve:      1000,
	}
}
