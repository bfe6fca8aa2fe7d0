package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
)

func TestBuildBlockQuery_IntersectionAndReasons(t *testing.T) {
	owner := uuid.New()
	exclude := uuid.New()
	r := valueobject.TimeRange{
		Start: time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 10, 17, 0, 0, 0, time.UTC),
	}

	query, args, err := buildBlockQuery(repository.Overlapping(owner, r, &exclude)).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "cb.owner_id = $1")
	assert.Contains(t, query, "cb.end_at > $2")
	assert.Contains(t, query, "cb.start_at < $3")
	assert.Contains(t, query, "cb.reason IN ($4,$5,$6,$7)")
	assert.Contains(t, query, "cb.id <> $8")
	assert.Contains(t, query, "ORDER BY cb.start_at ASC, cb.id ASC")
	assert.NotContains(t, query, "JOIN")
	require.Len(t, args, 8)
	assert.Equal(t, owner, args[0])
	assert.Equal(t, r.Start, args[1])
	assert.Equal(t, r.End, args[2])
	assert.Equal(t, "booking", args[3])
}

func TestBuildBlockQuery_WithBookingJoinsProfiles(t *testing.T) {
	query, _, err := buildBlockQuery(repository.BlockFilter{OwnerID: uuid.New(), WithBooking: true}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "LEFT JOIN bookings b ON b.id = cb.booking_id")
	assert.Contains(t, query, "pc.display_name AS b_client_name")
	assert.NotContains(t, query, "end_at >")
}

func TestBuildBookingQuery_Roles(t *testing.T) {
	user := uuid.New()

	both, _, err := buildBookingQuery(repository.BookingFilter{UserID: user}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, both, "(b.client_id = $1 OR b.talent_id = $2)")

	talent, args, err := buildBookingQuery(repository.BookingFilter{
		UserID:   user,
		Role:     repository.BookingRoleTalent,
		Statuses: []valueobject.BookingStatus{valueobject.BookingStatusAccepted, valueobject.BookingStatusInProgress},
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, talent, "b.talent_id = $1")
	assert.Contains(t, talent, "b.status IN ($2,$3)")
	assert.Len(t, args, 3)
}

func TestLockBooking_ForUpdateWithoutJoins(t *testing.T) {
	id := uuid.New()

	query, args, err := lockBooking(id).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM bookings b WHERE b.id = $1 FOR UPDATE")
	assert.Contains(t, query, "b.payment_status")
	assert.NotContains(t, query, "JOIN")
	assert.NotContains(t, query, "display_name")
	assert.Equal(t, []interface{}{id}, args)
}

func TestNextInvoiceSequence_UpsertsMonthlyCounter(t *testing.T) {
	query, args, err := nextInvoiceSequence(time.Date(2030, 3, 31, 23, 30, 0, 0, time.FixedZone("AEDT", 11*3600))).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO invoice_counters (period,last_seq) VALUES ($1,$2)")
	assert.Contains(t, query, "ON CONFLICT (period) DO UPDATE SET last_seq = invoice_counters.last_seq + 1 RETURNING last_seq")
	assert.Equal(t, []interface{}{"203003", 1}, args)
}

func TestSearchMessages_EscapesPattern(t *testing.T) {
	user := uuid.New()

	query, args, err := searchMessages(user, `50%_off\`, 20).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "(sender_id = $1 OR recipient_id = $2)")
	assert.Contains(t, query, "body ILIKE $3")
	assert.Contains(t, query, "LIMIT 20")
	require.Len(t, args, 3)
	assert.Equal(t, `%50\%\_off\\%`, args[2])
}
