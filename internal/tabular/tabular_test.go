package tabular

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParse_ColumnsInHeaderOrder(t *testing.T) {
	table, err := Parse("id,name,lat,lon\n1,New York,40.713543,-74.011219\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"id", "name", "lat", "lon"}
	if !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("Columns = %v, want %v", table.Columns, want)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	if got := table.Rows[0]["name"]; got != "New York" {
		t.Errorf("Rows[0][name] = %q, want %q", got, "New York")
	}
}

func TestParse_DuplicateHeadersKept(t *testing.T) {
	table, err := Parse("id,id,name\n1,2,x\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"id", "id", "name"}
	if !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("Columns = %v, want %v", table.Columns, want)
	}
	if got := table.Rows[0]["id"]; got != "2" {
		t.Errorf("duplicate column value = %q, want later value %q", got, "2")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	tests := []string{"", "   ", "\n\n"}

	for _, input := range tests {
		table, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", input, err)
			continue
		}
		if len(table.Columns) != 0 || table.Len() != 0 {
			t.Errorf("Parse(%q) = %d columns, %d rows; want empty", input, len(table.Columns), table.Len())
		}
	}
}

func TestParse_ShortAndLongRows(t *testing.T) {
	table, err := Parse("origin,dest,count\n1,2\n3,4,5,6\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	short := table.Rows[0]
	if _, ok := short["count"]; ok {
		t.Error("short row should leave count absent")
	}
	if short["dest"] != "2" {
		t.Errorf("short row dest = %q, want 2", short["dest"])
	}

	long := table.Rows[1]
	if len(long) != 3 {
		t.Errorf("long row has %d cells, want 3", len(long))
	}
	if long["count"] != "5" {
		t.Errorf("long row count = %q, want 5", long["count"])
	}
}

func TestParse_QuotedFields(t *testing.T) {
	table, err := Parse("id,name\n1,\"Washington, D.C.\"\n2,\"Say \"\"hi\"\"\"\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Rows[0]["name"]; got != "Washington, D.C." {
		t.Errorf("quoted comma = %q", got)
	}
	if got := table.Rows[1]["name"]; got != `Say "hi"` {
		t.Errorf("escaped quote = %q", got)
	}
}

func TestParse_StructuralFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated quote", "id,name\n1,\"open\n", ErrMalformed},
		{"unterminated quote spanning lines", "id,name\n1,\"open\n2,x\n3,y\n", ErrMalformed},
		{"quoted field with trailing text", "id,name\n1,\"a\"b\n", ErrMalformed},
		{"binary", "id\x00name\n1,2\n", ErrBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error should be *ParseError, got %T", err)
			}
		})
	}
}

func TestParse_UnterminatedQuoteLine(t *testing.T) {
	_, err := Parse("id,name\n1,ok\n2,\"open\n3,x\n")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Line != 3 {
		t.Errorf("Line = %d, want 3", pe.Line)
	}
}

func TestParse_StrayQuotesKept(t *testing.T) {
	table, err := Parse("id,name,lat,lon\n1,Joe's 5\" Diner,40.7,-74.0\n2,London,51.5,-0.1\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	if got := table.Rows[0]["name"]; got != `Joe's 5" Diner` {
		t.Errorf("name = %q", got)
	}
	if got := table.Rows[1]["name"]; got != "London" {
		t.Errorf("name = %q, want London", got)
	}
}

func TestParse_QuoteInsideQuotedField(t *testing.T) {
	table, err := Parse("id,name\n1,\"5\" pipe\",x\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Rows[0]["name"]; got != `5" pipe` {
		t.Errorf("name = %q", got)
	}
}

func TestParse_RowLines(t *testing.T) {
	table, err := Parse("id,name\n1,a\n\n2,\"two\nlines\"\n3,c\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []int{2, 4, 6}
	if !reflect.DeepEqual(table.Lines, want) {
		t.Errorf("Lines = %v, want %v", table.Lines, want)
	}
	if got := table.Rows[1]["name"]; got != "two\nlines" {
		t.Errorf("multi-line field = %q", got)
	}
}

func TestParseDelimited_Semicolon(t *testing.T) {
	table, err := ParseDelimited("id;lat\n1;40.7\n", ';')
	if err != nil {
		t.Fatalf("ParseDelimited() error = %v", err)
	}
	if table.Rows[0]["lat"] != "40.7" {
		t.Errorf("lat = %q, want 40.7", table.Rows[0]["lat"])
	}
}

func TestPreview(t *testing.T) {
	table, _ := Parse("n\n1\n2\n3\n4\n5\n6\n7\n")

	if got := len(table.Preview(5)); got != 5 {
		t.Errorf("Preview(5) = %d rows, want 5", got)
	}
	if got := len(table.Preview(50)); got != 7 {
		t.Errorf("Preview(50) = %d rows, want 7", got)
	}
	if got := len(table.Preview(-1)); got != 0 {
		t.Errorf("Preview(-1) = %d rows, want 0", got)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain", []byte("id,name"), "id,name"},
		{"bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "id"...), "id"},
		{"invalid byte replaced", []byte("a\x80b"), "a�b"},
		{"unicode kept", []byte("S\xc3\xa3o Paulo"), "São Paulo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBytes_BOMHeader(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, "id,lat\n1,2\n"...)
	table, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if table.Columns[0] != "id" {
		t.Errorf("first column = %q, want id (BOM removed)", table.Columns[0])
	}
}

func TestFromXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"origin", "dest", "count"},
		{"1", "2", 42},
		{},
		{"2", "1"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	text, err := FromXLSX(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("FromXLSX() error = %v", err)
	}

	table, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"origin", "dest", "count"}) {
		t.Errorf("Columns = %v", table.Columns)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (blank row skipped)", table.Len())
	}
	if table.Rows[0]["count"] != "42" {
		t.Errorf("count = %q, want 42", table.Rows[0]["count"])
	}
	if _, ok := table.Rows[1]["count"]; ok {
		t.Errorf("short row gained a count cell: %v", table.Rows[1])
	}

	if _, err := FromXLSX(buf.Bytes(), "Missing"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("FromXLSX(Missing) error = %v, want ErrSheetNotFound", err)
	}
}

func TestFromXLSX_DuplicateHeaders(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "id", "lat"})
	f.SetSheetRow("Sheet1", "A2", &[]interface{}{"a", "b", "1.5"})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	text, err := FromXLSX(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("FromXLSX() error = %v", err)
	}
	if want := "id,id,lat\na,b,1.5\n"; text != want {
		t.Errorf("FromXLSX() = %q, want %q", text, want)
	}
}

func TestFromXLSX_NotAWorkbook(t *testing.T) {
	_, err := FromXLSX([]byte("id,lat\n1,2\n"), "")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestIsSpreadsheet(t *testing.T) {
	if !IsSpreadsheet("flows.XLSX") {
		t.Error("IsSpreadsheet(flows.XLSX) = false")
	}
	if IsSpreadsheet("flows.csv") {
		t.Error("IsSpreadsheet(flows.csv) = true")
	}
}
