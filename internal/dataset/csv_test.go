package dataset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

func TestReadCSVInfersKinds(t *testing.T) {
	input := strings.Join([]string{
		"id,score,active,joined,name",
		"1,3.5,true,2021-04-01,Alice",
		"2,4.0,false,2021-05-12,Bob",
		"3,2.25,true,2021-06-30,Carol",
	}, "\n")

	table, err := ReadCSV(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, table.Columns, 5)
	assert.Equal(t, 3, table.Rows())

	assert.Equal(t, models.KindInteger, table.Column("id").Kind)
	assert.Equal(t, models.KindFloat, table.Column("score").Kind)
	assert.Equal(t, models.KindBoolean, table.Column("active").Kind)
	assert.Equal(t, models.KindDatetime, table.Column("joined").Kind)
	assert.Equal(t, models.KindText, table.Column("name").Kind)

	assert.Equal(t, 1.0, table.Column("id").Values[0])
	assert.Equal(t, true, table.Column("active").Values[0])
	joined, ok := table.Column("joined").Values[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2021, joined.Year())
}

func TestReadCSVNullTokens(t *testing.T) {
	input := strings.Join([]string{
		"age,city",
		"34,Berlin",
		"NA,",
		"29,Izmir",
	}, "\n")

	table, err := ReadCSV(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, models.KindInteger, table.Column("age").Kind)
	assert.Nil(t, table.Column("age").Values[1])
	assert.Nil(t, table.Column("city").Values[1])
	assert.Equal(t, 1, table.Column("city").NullCount())
}

func TestReadCSVRaggedRecordFails(t *testing.T) {
	input := "a,b\n1,2\n3\n"

	_, err := ReadCSV(strings.NewReader(input), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestReadCSVEmptyInputFails(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestReadCSVCustomDelimiter(t *testing.T) {
	input := "x;y\n1;2\n3;4\n"

	table, err := ReadCSV(strings.NewReader(input), &ReadOptions{Comma: ';'})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, models.KindInteger, table.Column("y").Kind)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	input := strings.Join([]string{
		"id,score,note",
		"1,3.5,ok",
		"2,,missing score",
		"3,2.25,",
	}, "\n")

	table, err := ReadCSV(strings.NewReader(input), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	again, err := ReadCSV(&buf, nil)
	require.NoError(t, err)
	require.Equal(t, table.Rows(), again.Rows())

	assert.Equal(t, models.KindInteger, again.Column("id").Kind)
	assert.Nil(t, again.Column("score").Values[1])
	assert.Equal(t, "missing score", again.Column("note").Values[1])
}

func TestFormatCellIntegerHasNoDecimal(t *testing.T) {
	assert.Equal(t, "42", formatCell(42.0, models.KindInteger))
	assert.Equal(t, "42.5", formatCell(42.5, models.KindFloat))
	assert.Equal(t, "", formatCell(nil, models.KindFloat))
}
