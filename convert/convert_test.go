package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotationsCSV = `filename,width,height,class,xmin,ymin,xmax,ymax
wall_01.jpg,400,200,graffiti,100,50,300,150
wall_02.png,1000,500,graffiti,0,0,500,250
wall_01.jpg,400,200,tag,0,0,40,20
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "annotations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRows(t *testing.T) {
	groups, err := ReadRows(strings.NewReader(annotationsCSV))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "wall_01.jpg", groups[0].Filename)
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "tag", groups[0].Rows[1].Class)
	assert.Equal(t, "wall_02.png", groups[1].Filename)
	assert.Equal(t, 500.0, groups[1].Rows[0].Rect.X2)
}

func TestReadRows_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing column", "filename,width,height,xmin,ymin,xmax\na.jpg,1,1,0,0,1\n"},
		{"bad number", "filename,width,height,xmin,ymin,xmax,ymax\na.jpg,1,1,0,0,1,x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRows(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestConvertCSV(t *testing.T) {
	csvPath := writeCSV(t, annotationsCSV)
	out := filepath.Join(t.TempDir(), "labels")

	res, err := ConvertCSV(csvPath, out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Images)
	assert.Equal(t, 3, res.Boxes)

	data, err := os.ReadFile(filepath.Join(out, "wall_01.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"0 0.500000 0.500000 0.500000 0.500000\n"+
			"0 0.050000 0.050000 0.100000 0.100000\n",
		string(data))

	data, err = os.ReadFile(filepath.Join(out, "wall_02.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0 0.250000 0.250000 0.500000 0.500000\n", string(data))
}

func TestConvertCSV_Classes(t *testing.T) {
	csvPath := writeCSV(t, annotationsCSV)
	out := t.TempDir()

	_, err := ConvertCSV(csvPath, out, Options{Classes: []string{"graffiti", "tag"}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "wall_01.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0 "))
	assert.True(t, strings.HasPrefix(lines[1], "1 "))

	_, err = ConvertCSV(csvPath, out, Options{Classes: []string{"graffiti"}})
	assert.ErrorContains(t, err, `unknown class "tag"`)
}

func TestConvertCSV_Errors(t *testing.T) {
	_, err := ConvertCSV(filepath.Join(t.TempDir(), "missing.csv"), t.TempDir(), Options{})
	assert.Error(t, err)

	csvPath := writeCSV(t, "filename,width,height,xmin,ymin,xmax,ymax\na.jpg,0,100,0,0,10,10\n")
	_, err = ConvertCSV(csvPath, t.TempDir(), Options{})
	assert.ErrorContains(t, err, "invalid size")
}

func TestAnnotations_DegenerateBoxIsKept(t *testing.T) {
	g := Group{
		Filename: "a.jpg",
		Rows: []Row{{
			Filename: "a.jpg", Width: 100, Height: 100,
		}},
	}
	anns, err := Annotations(g, nil)
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.False(t, anns[0].Box.Valid())
}
