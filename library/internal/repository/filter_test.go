package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookdesk/library-service/library/internal/model"
)

func TestBookFilter(t *testing.T) {
	t.Parallel()

	t.Run("free text query fans out over text columns", func(t *testing.T) {
		t.Parallel()
		query, args, err := bookFilter(qb.Select(bookColumns).From(booksTableName),
			model.BookFilter{Query: "python"}).ToSql()
		require.NoError(t, err)
		require.Contains(t, query, "title ILIKE $1 OR author ILIKE $2 OR isbn ILIKE $3")
		require.Equal(t, []interface{}{"%python%", "%python%", "%python%"}, args)
	})

	t.Run("explicit fields are ANDed", func(t *testing.T) {
		t.Parallel()
		query, args, err := bookFilter(qb.Select("count(*)").From(booksTableName),
			model.BookFilter{Title: "dune", Author: "herbert"}).ToSql()
		require.NoError(t, err)
		require.Contains(t, query, "title ILIKE $1 AND author ILIKE $2")
		require.Equal(t, []interface{}{"%dune%", "%herbert%"}, args)
	})

	t.Run("empty filter adds no predicate", func(t *testing.T) {
		t.Parallel()
		query, args, err := bookFilter(qb.Select(bookColumns).From(booksTableName),
			model.BookFilter{}).ToSql()
		require.NoError(t, err)
		require.NotContains(t, query, "WHERE")
		require.Empty(t, args)
	})
}

func TestMemberFilter(t *testing.T) {
	t.Parallel()
	query, args, err := memberFilter(qb.Select(memberColumns).From(membersTableName),
		model.MemberFilter{Query: "ada"}).ToSql()
	require.NoError(t, err)
	require.Contains(t, query, "name ILIKE $1 OR email ILIKE $2")
	require.Equal(t, []interface{}{"%ada%", "%ada%"}, args)
}

func TestBorrowFilter(t *testing.T) {
	t.Parallel()

	t.Run("always restricted to active borrows", func(t *testing.T) {
		t.Parallel()
		query, args, err := borrowFilter(qb.Select("count(*)").From(borrowsTableName+" br"),
			model.BorrowFilter{}).ToSql()
		require.NoError(t, err)
		require.Contains(t, query, "br.status = $1")
		require.Equal(t, []interface{}{model.BorrowStatusActive}, args)
	})

	t.Run("member filter narrows further", func(t *testing.T) {
		t.Parallel()
		memberID := "83575e12-7ce0-48ee-9931-51919ff3c9ee"
		query, args, err := borrowFilter(qb.Select("count(*)").From(borrowsTableName+" br"),
			model.BorrowFilter{MemberID: memberID}).ToSql()
		require.NoError(t, err)
		require.Contains(t, query, "br.member_id = $2")
		require.Equal(t, []interface{}{model.BorrowStatusActive, memberID}, args)
	})
}
