package workspace

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

var (
	siteTpl     = schemas.BlockTemplate{ID: "site", Kind: schemas.KindSite, Operator: "site:", Placeholder: "example.com", Description: "site"}
	filetypeTpl = schemas.BlockTemplate{ID: "filetype", Kind: schemas.KindFiletype, Operator: "filetype:", Placeholder: "pdf", Description: "filetype"}
	inurlTpl    = schemas.BlockTemplate{ID: "inurl", Kind: schemas.KindInURL, Operator: "inurl:", Placeholder: "admin", Description: "inurl"}
)

// ids projects a snapshot onto its instance ids.
func ids(blocks []schemas.BlockInstance) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

// abc builds a workspace holding three blocks and returns their ids in order.
func abc(t *testing.T) (*Workspace, string, string, string) {
	t.Helper()
	w := New()
	a := w.Add(siteTpl)
	b := w.Add(filetypeTpl)
	c := w.Add(inurlTpl)
	require.Equal(t, 3, w.Len())
	return w, a, b, c
}

func TestAdd(t *testing.T) {
	t.Run("appends in call order", func(t *testing.T) {
		w, a, b, c := abc(t)
		assert.Equal(t, []string{a, b, c}, ids(w.Snapshot()))
	})

	t.Run("snapshots the template", func(t *testing.T) {
		w := New()
		tpl := siteTpl
		id := w.Add(tpl)
		tpl.Operator = "changed:"

		inst, ok := w.At(0)
		require.True(t, ok)
		want := schemas.BlockInstance{
			ID:          id,
			Kind:        schemas.KindSite,
			Operator:    "site:",
			Placeholder: "example.com",
			Description: "site",
		}
		if diff := cmp.Diff(want, inst); diff != "" {
			t.Errorf("instance mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fresh ids for the same template", func(t *testing.T) {
		w := New()
		first := w.Add(siteTpl)
		second := w.Add(siteTpl)
		assert.NotEqual(t, first, second)
		assert.NotEqual(t, siteTpl.ID, first)
	})

	t.Run("inserts at index", func(t *testing.T) {
		w, a, b, c := abc(t)
		d := w.Add(siteTpl, AtIndex(1))
		assert.Equal(t, []string{a, d, b, c}, ids(w.Snapshot()))

		e := w.Add(siteTpl, AtIndex(0))
		assert.Equal(t, []string{e, a, d, b, c}, ids(w.Snapshot()))

		f := w.Add(siteTpl, AtIndex(w.Len()))
		assert.Equal(t, f, ids(w.Snapshot())[w.Len()-1])
	})

	t.Run("out of range index appends", func(t *testing.T) {
		for _, idx := range []int{-1, 4, 100} {
			w, a, b, c := abc(t)
			d := w.Add(siteTpl, AtIndex(idx))
			assert.Equal(t, []string{a, b, c, d}, ids(w.Snapshot()), "index %d", idx)
		}
	})

	t.Run("seed value", func(t *testing.T) {
		w := New()
		w.Add(siteTpl, WithValue("example.com"))
		inst, _ := w.At(0)
		assert.Equal(t, "example.com", inst.Value)
	})
}

func TestImport(t *testing.T) {
	w := New()
	id := w.Import(`intitle:"index of" "backup"`, "Backup directories")
	inst, ok := w.At(w.Index(id))
	require.True(t, ok)
	assert.Equal(t, schemas.KindCustom, inst.Kind)
	assert.Empty(t, inst.Operator)
	assert.Equal(t, `intitle:"index of" "backup"`, inst.Value)
	assert.Equal(t, "Backup directories", inst.Description)
}

func TestUpdate(t *testing.T) {
	w, a, b, c := abc(t)
	require.NoError(t, w.Update(b, "pdf"))

	snap := w.Snapshot()
	assert.Equal(t, []string{a, b, c}, ids(snap), "update must not move the block")
	assert.Equal(t, "pdf", snap[1].Value)

	err := w.Update("ws_block_999", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ws_block_999", nf.ID)
}

func TestRemove(t *testing.T) {
	t.Run("middle leaves no gap", func(t *testing.T) {
		w, a, b, c := abc(t)
		require.NoError(t, w.Remove(b))
		assert.Equal(t, []string{a, c}, ids(w.Snapshot()))
		assert.Equal(t, 2, w.Len())
	})

	t.Run("stale id is a no-op", func(t *testing.T) {
		w, a, b, c := abc(t)
		require.NoError(t, w.Remove(b))
		err := w.Remove(b)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []string{a, c}, ids(w.Snapshot()))
	})
}

func TestReorder(t *testing.T) {
	t.Run("first to last", func(t *testing.T) {
		w, a, b, c := abc(t)
		require.NoError(t, w.Reorder(0, 2))
		assert.Equal(t, []string{b, c, a}, ids(w.Snapshot()))
	})

	t.Run("last to first", func(t *testing.T) {
		w, a, b, c := abc(t)
		require.NoError(t, w.Reorder(2, 0))
		assert.Equal(t, []string{c, a, b}, ids(w.Snapshot()))
	})

	t.Run("adjacent swap", func(t *testing.T) {
		w, a, b, c := abc(t)
		require.NoError(t, w.Reorder(1, 2))
		assert.Equal(t, []string{a, c, b}, ids(w.Snapshot()))
	})

	t.Run("same index is a no-op", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			w, a, b, c := abc(t)
			require.NoError(t, w.Reorder(i, i))
			assert.Equal(t, []string{a, b, c}, ids(w.Snapshot()))
		}
	})

	t.Run("out of range", func(t *testing.T) {
		cases := [][2]int{{-1, 0}, {0, 3}, {3, 3}, {0, -2}}
		for _, tc := range cases {
			w, a, b, c := abc(t)
			err := w.Reorder(tc[0], tc[1])
			require.Error(t, err, "reorder(%d, %d)", tc[0], tc[1])
			assert.ErrorIs(t, err, ErrInvalidIndex)
			assert.Equal(t, []string{a, b, c}, ids(w.Snapshot()))
		}
	})

	t.Run("empty workspace", func(t *testing.T) {
		var ie *InvalidIndexError
		err := New().Reorder(0, 0)
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, 0, ie.Length)
	})
}

func TestClear(t *testing.T) {
	w, a, _, _ := abc(t)
	w.Clear()
	assert.Zero(t, w.Len())
	assert.Empty(t, w.Snapshot())

	// Ids are never reissued after a clear.
	d := w.Add(siteTpl)
	assert.NotEqual(t, a, d)
	assert.ErrorIs(t, w.Update(a, "x"), ErrNotFound)
}

func TestSnapshotIsACopy(t *testing.T) {
	w, _, _, _ := abc(t)
	snap := w.Snapshot()
	snap[0].Value = "mutated"
	inst, _ := w.At(0)
	assert.Empty(t, inst.Value)
}
