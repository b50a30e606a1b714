package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/catatan/internal/models"
)

func TestEncode_Paragraph(t *testing.T) {
	units, images := Encode([]Block{
		{ID: "1", Kind: KindParagraph, Text: "Hello", Bold: true},
		{ID: "2", Kind: KindParagraph, Text: "World", Italic: true},
	})

	require.Len(t, units, 2)
	assert.Empty(t, images)
	assert.Equal(t, models.ContentUnit{Text: "Hello", Bold: true}, units[0])
	assert.Equal(t, models.ContentUnit{Text: "World", Italic: true}, units[1])
}

func TestEncode_BlankDropped(t *testing.T) {
	units, images := Encode([]Block{
		{ID: "1", Kind: KindParagraph, Text: "   "},
		{ID: "2", Kind: KindHeading, Text: "\t\n"},
		{ID: "3", Kind: KindBulletItem, Text: ""},
	})
	assert.Empty(t, units)
	assert.Empty(t, images)
	assert.NotNil(t, units)
	assert.NotNil(t, images)
}

func TestEncode_ChecklistGroupedLast(t *testing.T) {
	units, _ := Encode([]Block{
		{ID: "1", Kind: KindChecklistItem, Text: "Buy milk"},
		{ID: "2", Kind: KindParagraph, Text: "Note"},
		{ID: "3", Kind: KindChecklistItem, Text: "Buy eggs", Checked: true},
	})

	require.Len(t, units, 2)
	assert.Equal(t, "Note", units[0].Text)
	assert.False(t, units[0].IsChecklist())
	assert.Equal(t, []models.ChecklistEntry{
		{Text: "Buy milk", Checked: false},
		{Text: "Buy eggs", Checked: true},
	}, units[1].ChecklistItems)
}

func TestEncode_ChecklistKeepsBlankItems(t *testing.T) {
	units, _ := Encode([]Block{{ID: "1", Kind: KindChecklistItem, Text: " "}})
	require.Len(t, units, 1)
	assert.Equal(t, []models.ChecklistEntry{{Text: " "}}, units[0].ChecklistItems)
}

func TestEncode_KindsAndImages(t *testing.T) {
	img1 := models.ImageRef{Key: "a.png"}
	img2 := models.ImageRef{Key: "b.png"}
	units, images := Encode([]Block{
		{ID: "1", Kind: KindImage, Image: &img1},
		{ID: "2", Kind: KindHeading, Text: "Title", Bold: true},
		{ID: "3", Kind: KindBulletItem, Text: "point"},
		{ID: "4", Kind: KindImage, Image: &img2},
		{ID: "5", Kind: KindImage},
	})

	assert.Equal(t, []models.ImageRef{img1, img2}, images)
	assert.Equal(t, []models.ContentUnit{
		{Text: "Title", Bold: true, Heading: true},
		{Text: "point", Bullet: true},
	}, units)
}

func TestDecode_ChecklistAndImage(t *testing.T) {
	img := models.ImageRef{Key: "img1"}
	blocks := Decode(&models.Note{
		Content: []models.ContentUnit{{ChecklistItems: []models.ChecklistEntry{{Text: "A", Checked: true}}}},
		Images:  []models.ImageRef{img},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, Block{ID: "1", Kind: KindChecklistItem, Text: "A", Checked: true}, blocks[0])
	assert.Equal(t, KindImage, blocks[1].Kind)
	require.NotNil(t, blocks[1].Image)
	assert.Equal(t, img, *blocks[1].Image)
	assert.Equal(t, "2", blocks[1].ID)
}

func TestDecode_EmptyNote(t *testing.T) {
	blocks := Decode(&models.Note{})
	assert.Equal(t, []Block{{ID: "1", Kind: KindParagraph, Text: ""}}, blocks)
}

func TestDecode_HeadingTakesPriority(t *testing.T) {
	blocks := Decode(&models.Note{Content: []models.ContentUnit{
		{Text: "both", Heading: true, Bullet: true},
		{Text: "bullet", Bullet: true},
		{Text: "plain"},
	}})

	require.Len(t, blocks, 3)
	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, KindBulletItem, blocks[1].Kind)
	assert.Equal(t, KindParagraph, blocks[2].Kind)
}

func TestDecode_CarriesFormattingForEveryKind(t *testing.T) {
	blocks := Decode(&models.Note{Content: []models.ContentUnit{
		{Text: "h", Heading: true, Bold: true, Italic: true},
		{Text: "b", Bullet: true, Italic: true},
	}})

	assert.True(t, blocks[0].Bold)
	assert.True(t, blocks[0].Italic)
	assert.False(t, blocks[1].Bold)
	assert.True(t, blocks[1].Italic)

	units, _ := Encode(blocks)
	assert.Equal(t, []models.ContentUnit{
		{Text: "h", Heading: true, Bold: true, Italic: true},
		{Text: "b", Bullet: true, Italic: true},
	}, units)
}

func TestDecode_ChecklistWinsOverText(t *testing.T) {
	blocks := Decode(&models.Note{Content: []models.ContentUnit{
		{Text: "ignored", Heading: true, ChecklistItems: []models.ChecklistEntry{{Text: "x"}}},
	}})
	assert.Equal(t, []Block{{ID: "1", Kind: KindChecklistItem, Text: "x"}}, blocks)
}

func TestDecode_SequentialIDs(t *testing.T) {
	blocks := Decode(&models.Note{
		Content: []models.ContentUnit{
			{Text: "a"},
			{ChecklistItems: []models.ChecklistEntry{{Text: "1"}, {Text: "2"}}},
		},
		Images: []models.ImageRef{{Key: "k"}},
	})
	var ids []string
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
}

func TestRoundTrip_ChecklistAndImagesStable(t *testing.T) {
	note := &models.Note{
		Content: []models.ContentUnit{
			{Text: "Intro", Heading: true},
			{Text: "body", Bold: true},
			{ChecklistItems: []models.ChecklistEntry{{Text: "one", Checked: true}, {Text: "two"}}},
		},
		Images: []models.ImageRef{{Key: "x"}, {Key: "y"}},
	}

	units, images := Encode(Decode(note))
	assert.Equal(t, note.Content, units)
	assert.Equal(t, note.Images, images)

	again := Decode(&models.Note{Content: units, Images: images})
	assert.Equal(t, Decode(note), again)
}

func TestRoundTrip_LossyReorder(t *testing.T) {
	in := []Block{
		{Kind: KindChecklistItem, Text: "first"},
		{Kind: KindParagraph, Text: "after"},
		{Kind: KindParagraph, Text: "  "},
	}
	units, images := Encode(in)
	out := Decode(&models.Note{Content: units, Images: images})

	require.Len(t, out, 2)
	assert.Equal(t, KindParagraph, out[0].Kind)
	assert.Equal(t, KindChecklistItem, out[1].Kind)
}
