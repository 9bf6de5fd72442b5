// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/civictech-fuji/budgetbook/logger"
	pdflib "github.com/ledongthuc/pdf"
)

// BookInfo is the descriptive and structural metadata of a source budget
// book, useful for verifying which edition a file is before a long run.
type BookInfo struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`

	PDFVersion              string `json:"pdfVersion,omitempty"`
	Pages                   int    `json:"pages"`
	HasXMP                  bool   `json:"hasXMP"`
	HasCollection           bool   `json:"hasCollection"`
	Encrypted               bool   `json:"encrypted"`
	ContainsNonEmbeddedFont bool   `json:"containsNonEmbeddedFont"`

	AccessPermission AccessPermission `json:"accessPermission"`
}

// AccessPermission reflects the Standard Security P bits (ISO 32000-1
// §7.6.3). A bit set to 1 grants the permission; an unencrypted file
// grants everything.
type AccessPermission struct {
	CanPrint                bool `json:"canPrint"`
	CanPrintFaithful        bool `json:"canPrintFaithful"`
	CanModify               bool `json:"canModify"`
	ExtractContent          bool `json:"extractContent"`
	ModifyAnnotations       bool `json:"modifyAnnotations"`
	FillInForm              bool `json:"fillInForm"`
	ExtractForAccessibility bool `json:"extractForAccessibility"`
	AssembleDocument        bool `json:"assembleDocument"`
}

// Info reads the book's metadata: the /Info dictionary plus structural
// flags gathered from the trailer and page tree.
func (b *BookSource) Info() BookInfo {
	logger.Debug("reading Info dictionary")
	info := b.reader.Trailer().Key("Info")

	out := BookInfo{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Keywords:     info.Key("Keywords").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: info.Key("CreationDate").Text(),
		ModDate:      info.Key("ModDate").Text(),
	}

	out.PDFVersion = strings.TrimSpace(b.headerVersion())
	out.Pages = b.reader.NumPage()
	out.HasXMP = b.reader.Trailer().Key("Root").Key("Metadata").Kind() == pdflib.Stream
	out.HasCollection = !b.reader.Trailer().Key("Root").Key("Collection").IsNull()
	out.Encrypted = b.isEncrypted()
	out.ContainsNonEmbeddedFont = b.containsNonEmbeddedFont()
	out.AccessPermission = b.accessPermissions()

	logger.Debug("metadata extracted", true)
	return out
}

// InfoJSON writes the book metadata as pretty JSON to the provided writer.
func (b *BookSource) InfoJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b.Info())
}

// headerVersion returns the PDF header version string.
func (b *BookSource) headerVersion() string {
	buf := make([]byte, 64)
	n, _ := b.file.ReadAt(buf, 0)
	line := string(buf[:n])
	i := strings.Index(line, "%PDF-")
	if i < 0 {
		return ""
	}
	line = line[i:]
	if j := strings.IndexAny(line, "\r\n"); j >= 0 {
		line = line[:j]
	}
	return strings.TrimPrefix(line, "%PDF-")
}

func (b *BookSource) isEncrypted() bool {
	return b.reader.Trailer().Key("Encrypt").Kind() == pdflib.Dict
}

func (b *BookSource) accessPermissions() AccessPermission {
	enc := b.reader.Trailer().Key("Encrypt")
	if enc.Kind() == pdflib.Null {
		// no encryption => all allowed
		return AccessPermission{
			CanPrint:                true,
			CanPrintFaithful:        true,
			CanModify:               true,
			ExtractContent:          true,
			ModifyAnnotations:       true,
			FillInForm:              true,
			ExtractForAccessibility: true,
			AssembleDocument:        true,
		}
	}
	p := uint32(enc.Key("P").Int64())
	var ap AccessPermission
	ap.CanPrint = (p & (1 << 2)) != 0
	ap.CanModify = (p & (1 << 3)) != 0
	ap.ExtractContent = (p & (1 << 4)) != 0
	ap.ModifyAnnotations = (p & (1 << 5)) != 0
	ap.FillInForm = (p&(1<<8)) != 0 || ap.ModifyAnnotations
	ap.ExtractForAccessibility = (p & (1 << 9)) != 0
	ap.AssembleDocument = (p & (1 << 10)) != 0
	ap.CanPrintFaithful = (p&(1<<11)) != 0 || ap.CanPrint
	return ap
}

// containsNonEmbeddedFont returns true if any page references a font
// without an embedded font file. Municipal print shops occasionally ship
// books that rely on viewer-substituted CJK fonts; those still tokenize,
// but glyph widths get less reliable.
func (b *BookSource) containsNonEmbeddedFont() bool {
	pages := b.reader.NumPage()
	for i := 1; i <= pages; i++ {
		p := b.reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		fd := p.Resources().Key("Font")
		if fd.Kind() != pdflib.Dict {
			continue
		}
		for _, fname := range fd.Keys() {
			f := p.Font(fname)
			desc := f.V.Key("FontDescriptor")
			if desc.Kind() != pdflib.Dict {
				// CID-keyed fonts hang the descriptor off the descendant font.
				desc = f.V.Key("DescendantFonts").Index(0).Key("FontDescriptor")
			}
			if desc.Kind() != pdflib.Dict {
				// no descriptor => not embedded
				return true
			}
			if desc.Key("FontFile").Kind() == pdflib.Stream ||
				desc.Key("FontFile2").Kind() == pdflib.Stream ||
				desc.Key("FontFile3").Kind() == pdflib.Stream {
				// embedded
				continue
			}
			return true
		}
	}
	return false
}
