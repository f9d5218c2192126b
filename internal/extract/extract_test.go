package extract

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestText_PlainAndMarkdown(t *testing.T) {
	for _, name := range []string{"notes.txt", "README.md", "doc.markdown", "UPPER.TXT"} {
		got, err := Text(name, []byte("hello world"))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != "hello world" {
			t.Errorf("%s: got %q", name, got)
		}
	}
}

func TestText_UnsupportedExtension(t *testing.T) {
	for _, name := range []string{"image.png", "archive.zip", "noext", "presentation.pptx"} {
		got, err := Text(name, []byte{0x01, 0x02})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != "" {
			t.Errorf("%s: expected empty result, got %q", name, got)
		}
	}
}

func TestText_CorruptPDF(t *testing.T) {
	if _, err := Text("broken.pdf", []byte("not a pdf at all")); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}

func TestText_CorruptXLSX(t *testing.T) {
	if _, err := Text("broken.xlsx", []byte("not a workbook")); err == nil {
		t.Error("expected error for corrupt xlsx")
	}
}

func TestText_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", "name"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "B1", "dept"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A2", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "B2", "finance"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Text("people.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(got, "[Sheet: "+sheet+"]") {
		t.Errorf("missing sheet marker in %q", got)
	}
	if !strings.Contains(got, "name\tdept") {
		t.Errorf("missing tab-joined header row in %q", got)
	}
	if !strings.Contains(got, "alice\tfinance") {
		t.Errorf("missing tab-joined data row in %q", got)
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".XLSX", ".xls", ".txt", ".md", ".markdown"} {
		if !Supported(ext) {
			t.Errorf("%s should be supported", ext)
		}
	}
	for _, ext := range []string{".png", ".docx", ""} {
		if Supported(ext) {
			t.Errorf("%s should not be supported", ext)
		}
	}
}
