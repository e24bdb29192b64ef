package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCategoryTree(t *testing.T) {
	men := &Category{ID: uuid.New(), Name: "Men", SortOrder: 2}
	women := &Category{ID: uuid.New(), Name: "Women", SortOrder: 1}
	shirts := &Category{ID: uuid.New(), Name: "Shirts", ParentID: &men.ID}
	jeans := &Category{ID: uuid.New(), Name: "Jeans", ParentID: &men.ID}
	missing := uuid.New()
	orphan := &Category{ID: uuid.New(), Name: "Orphan", ParentID: &missing, SortOrder: 3}

	tree := BuildCategoryTree([]*Category{shirts, men, orphan, women, jeans})

	require.Len(t, tree, 3)
	assert.Equal(t, "Women", tree[0].Name)
	assert.Equal(t, "Men", tree[1].Name)
	assert.Equal(t, "Orphan", tree[2].Name)

	require.Len(t, tree[1].Children, 2)
	assert.Equal(t, "Jeans", tree[1].Children[0].Name)
	assert.Equal(t, "Shirts", tree[1].Children[1].Name)
	assert.Empty(t, tree[0].Children)
}

func TestDescendantIDs(t *testing.T) {
	root := &Category{ID: uuid.New(), Name: "Root"}
	child := &Category{ID: uuid.New(), Name: "Child", ParentID: &root.ID}
	grandchild := &Category{ID: uuid.New(), Name: "Grandchild", ParentID: &child.ID}
	other := &Category{ID: uuid.New(), Name: "Other"}

	ids := DescendantIDs([]*Category{root, child, grandchild, other}, root.ID)

	assert.ElementsMatch(t, []uuid.UUID{root.ID, child.ID, grandchild.ID}, ids)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Áo thun Đỏ":         "ao-thun-do",
		"  Hello,  World!  ": "hello-world",
		"Quần Jean Nam 2026": "quan-jean-nam-2026",
		"already-a-slug":     "already-a-slug",
		"---":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	reviews := []*Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	assert.Equal(t, 4.3, AverageRating(reviews))
}
