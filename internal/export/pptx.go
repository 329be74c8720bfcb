package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"freshr-backend/internal/models"
)

const (
	emuPerInch = 914400
	slideW     = 10.0
	slideH     = 5.625

	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

// packageTime stamps every zip entry so identical input yields identical bytes.
var packageTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func emu(inches float64) int64 {
	return int64(inches * emuPerInch)
}

// RenderPPTX writes the outline as an Office Open XML slide deck: a title
// slide, one slide per outline slide and a closing slide.
func RenderPPTX(p *models.GeneratedPresentationData, theme Theme) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	pal := theme.Palette()

	slides := make([]xSlide, 0, len(p.Slides)+2)
	slides = append(slides, titleSlide(p, pal))
	for i, s := range p.Slides {
		slides = append(slides, contentSlide(s, i, len(p.Slides), pal))
	}
	slides = append(slides, closingSlide(pal))

	pkg := &pptxPackage{}
	pkg.addXML("[Content_Types].xml", contentTypes(len(slides)))
	pkg.addXML("_rels/.rels", relationships(
		xRelationship{ID: "rId1", Type: relOfficeDocument, Target: "ppt/presentation.xml"},
		xRelationship{ID: "rId2", Type: relCoreProps, Target: "docProps/core.xml"},
		xRelationship{ID: "rId3", Type: relExtendedProps, Target: "docProps/app.xml"},
	))
	pkg.addXML("docProps/core.xml", coreProperties(p))
	pkg.addXML("docProps/app.xml", xAppProperties{
		Xmlns:       "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties",
		Application: "FRESHR",
		Slides:      len(slides),
		Company:     "FRESHR",
	})
	pkg.addXML("ppt/presentation.xml", presentation(len(slides)))
	pkg.addXML("ppt/_rels/presentation.xml.rels", presentationRels(len(slides)))
	pkg.addRaw("ppt/slideMasters/slideMaster1.xml", slideMasterXML)
	pkg.addXML("ppt/slideMasters/_rels/slideMaster1.xml.rels", relationships(
		xRelationship{ID: "rId1", Type: relSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
		xRelationship{ID: "rId2", Type: relTheme, Target: "../theme/theme1.xml"},
	))
	pkg.addRaw("ppt/slideLayouts/slideLayout1.xml", slideLayoutXML)
	pkg.addXML("ppt/slideLayouts/_rels/slideLayout1.xml.rels", relationships(
		xRelationship{ID: "rId1", Type: relSlideMaster, Target: "../slideMasters/slideMaster1.xml"},
	))
	pkg.addRaw("ppt/theme/theme1.xml", themeXML(pal))
	for i, s := range slides {
		n := i + 1
		pkg.addXML(fmt.Sprintf("ppt/slides/slide%d.xml", n), s)
		pkg.addXML(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), relationships(
			xRelationship{ID: "rId1", Type: relSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
		))
	}

	return pkg.bytes()
}

func titleSlide(p *models.GeneratedPresentationData, pal Palette) xSlide {
	s := newSlide(pal.Primary)
	s.addText(box{0.5, 2.0, 9, 1.5}, "ctr", textParagraph(p.Title, "ctr", runStyle{size: 44, bold: true, color: pal.TitleText}))
	if p.Subtitle != "" {
		s.addText(box{0.5, 3.5, 9, 0.8}, "ctr", textParagraph(p.Subtitle, "ctr", runStyle{size: 24, color: pal.TitleText}))
	}
	return s
}

func contentSlide(slide models.Slide, index, total int, pal Palette) xSlide {
	s := newSlide("")
	s.addRect(box{0, 0, slideW, 0.8}, pal.Primary)
	s.addText(box{8.5, 0.1, 1.3, 0.6}, "ctr",
		textParagraph(fmt.Sprintf("%d / %d", index+1, total), "r", runStyle{size: 12, color: pal.TitleText}))
	s.addText(box{0.5, 0.1, 7.5, 0.6}, "ctr",
		textParagraph(truncateTitle(slide.Title), "", runStyle{size: 28, bold: true, color: pal.TitleText}))

	body := box{0.7, 1.3, 8.6, 4.0}
	if slide.Format == models.SlideFormatBulletpoint {
		items := bulletItems(slide.Content)
		paras := make([]xParagraph, len(items))
		for i, item := range items {
			paras[i] = numberedParagraph(item, runStyle{size: 18, color: pal.Text})
		}
		if len(paras) == 0 {
			paras = append(paras, xParagraph{})
		}
		s.addText(body, "t", paras...)
		return s
	}

	style := runStyle{size: paragraphSize(slide.Format), color: pal.Text}
	s.addText(body, "t", textParagraph(slide.Content, "l", style))
	return s
}

func closingSlide(pal Palette) xSlide {
	s := newSlide(pal.Background)
	s.addText(box{0.5, 2.0, 9, 1.0}, "ctr", textParagraph("Thank You!", "ctr", runStyle{size: 44, bold: true, color: pal.Accent}))
	s.addText(box{0.5, 3.5, 9, 0.5}, "t", textParagraph(creditLine, "ctr", runStyle{size: 16, italic: true, color: pal.Text}))
	return s
}

type box struct {
	x, y, w, h float64
}

func (b box) xfrm() xXfrm {
	return xXfrm{
		Off: xPoint{X: emu(b.x), Y: emu(b.y)},
		Ext: xSize{Cx: emu(b.w), Cy: emu(b.h)},
	}
}

type runStyle struct {
	size   int
	bold   bool
	italic bool
	color  string
}

func (r runStyle) rPr() xRPr {
	p := xRPr{Lang: "en-US", Sz: r.size * 100, Dirty: "0", SolidFill: solidFill(r.color)}
	if r.bold {
		p.B = "1"
	}
	if r.italic {
		p.I = "1"
	}
	return p
}

func textParagraph(text, align string, style runStyle) xParagraph {
	para := xParagraph{Runs: []xRun{{RPr: style.rPr(), T: text}}}
	if align != "" {
		para.PPr = &xPPr{Algn: align}
	}
	return para
}

func numberedParagraph(text string, style runStyle) xParagraph {
	return xParagraph{
		PPr: &xPPr{
			MarL:      emu(0.5),
			Indent:    -emu(0.5),
			SpcBef:    &xSpacing{SpcPts: xVal{Val: "1200"}},
			SpcAft:    &xSpacing{SpcPts: xVal{Val: "1200"}},
			BuFont:    &xTypeface{Typeface: "+mj-lt"},
			BuAutoNum: &xAutoNum{Type: "arabicPeriod"},
		},
		Runs: []xRun{{RPr: style.rPr(), T: text}},
	}
}

func solidFill(hex string) *xSolidFill {
	return &xSolidFill{SrgbClr: xVal{Val: hex}}
}

func newSlide(background string) xSlide {
	s := xSlide{
		XmlnsA: nsA,
		XmlnsR: nsR,
		XmlnsP: nsP,
		CSld: xCSld{SpTree: xSpTree{
			NvGrpSpPr: xNvGrpSpPr{CNvPr: xCNvPr{ID: 1, Name: ""}},
			GrpSpPr:   xGrpSpPr{Xfrm: xGrpXfrm{}},
		}},
	}
	if background != "" {
		s.CSld.Bg = &xBg{BgPr: xBgPr{SolidFill: *solidFill(background)}}
	}
	return s
}

func (s *xSlide) nextID() int {
	return len(s.CSld.SpTree.Shapes) + 2
}

func (s *xSlide) addRect(b box, fill string) {
	id := s.nextID()
	s.CSld.SpTree.Shapes = append(s.CSld.SpTree.Shapes, xShape{
		NvSpPr: xNvSpPr{CNvPr: xCNvPr{ID: id, Name: "Rectangle " + strconv.Itoa(id)}},
		SpPr: xSpPr{
			Xfrm:      b.xfrm(),
			PrstGeom:  xPrstGeom{Prst: "rect"},
			SolidFill: solidFill(fill),
		},
	})
}

func (s *xSlide) addText(b box, anchor string, paras ...xParagraph) {
	id := s.nextID()
	s.CSld.SpTree.Shapes = append(s.CSld.SpTree.Shapes, xShape{
		NvSpPr: xNvSpPr{
			CNvPr:   xCNvPr{ID: id, Name: "Text " + strconv.Itoa(id)},
			CNvSpPr: xCNvSpPr{TxBox: "1"},
		},
		SpPr: xSpPr{
			Xfrm:     b.xfrm(),
			PrstGeom: xPrstGeom{Prst: "rect"},
			NoFill:   &struct{}{},
		},
		TxBody: &xTxBody{
			BodyPr:     xBodyPr{Wrap: "square", RtlCol: "0", Anchor: anchor},
			Paragraphs: paras,
		},
	})
}

type pptxPackage struct {
	buf bytes.Buffer
	zw  *zip.Writer
	err error
}

func (p *pptxPackage) addRaw(name, content string) {
	if p.err != nil {
		return
	}
	if p.zw == nil {
		p.zw = zip.NewWriter(&p.buf)
	}
	w, err := p.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: packageTime})
	if err != nil {
		p.err = fmt.Errorf("create %s: %w", name, err)
		return
	}
	if _, err := w.Write([]byte(content)); err != nil {
		p.err = fmt.Errorf("write %s: %w", name, err)
	}
}

func (p *pptxPackage) addXML(name string, v interface{}) {
	if p.err != nil {
		return
	}
	b, err := xml.Marshal(v)
	if err != nil {
		p.err = fmt.Errorf("encode %s: %w", name, err)
		return
	}
	p.addRaw(name, xml.Header+string(b))
}

// bytes finishes the archive. On any earlier failure nothing is returned.
func (p *pptxPackage) bytes() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.zw.Close(); err != nil {
		return nil, fmt.Errorf("close pptx archive: %w", err)
	}
	return p.buf.Bytes(), nil
}

func contentTypes(slideCount int) xTypes {
	t := xTypes{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/content-types",
		Defaults: []xDefault{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: []xOverride{
			{PartName: "/ppt/presentation.xml", ContentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"},
			{PartName: "/ppt/slideMasters/slideMaster1.xml", ContentType: "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"},
			{PartName: "/ppt/slideLayouts/slideLayout1.xml", ContentType: "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"},
			{PartName: "/ppt/theme/theme1.xml", ContentType: "application/vnd.openxmlformats-officedocument.theme+xml"},
			{PartName: "/docProps/core.xml", ContentType: "application/vnd.openxmlformats-package.core-properties+xml"},
			{PartName: "/docProps/app.xml", ContentType: "application/vnd.openxmlformats-officedocument.extended-properties+xml"},
		},
	}
	for i := 1; i <= slideCount; i++ {
		t.Overrides = append(t.Overrides, xOverride{
			PartName:    fmt.Sprintf("/ppt/slides/slide%d.xml", i),
			ContentType: "application/vnd.openxmlformats-officedocument.presentationml.slide+xml",
		})
	}
	return t
}

func relationships(rels ...xRelationship) xRelationships {
	return xRelationships{Xmlns: nsRel, Relationships: rels}
}

func presentation(slideCount int) xPresentation {
	p := xPresentation{
		XmlnsA:       nsA,
		XmlnsR:       nsR,
		XmlnsP:       nsP,
		SldMasterIDs: []xSldMasterID{{ID: 2147483648, RID: "rId1"}},
		SldSz:        xSize{Cx: emu(slideW), Cy: emu(slideH)},
		NotesSz:      xSize{Cx: emu(slideH), Cy: emu(slideW)},
	}
	for i := 0; i < slideCount; i++ {
		p.SldIDs = append(p.SldIDs, xSldID{ID: 256 + i, RID: fmt.Sprintf("rId%d", i+2)})
	}
	return p
}

func presentationRels(slideCount int) xRelationships {
	rels := []xRelationship{{ID: "rId1", Type: relSlideMaster, Target: "slideMasters/slideMaster1.xml"}}
	for i := 0; i < slideCount; i++ {
		rels = append(rels, xRelationship{
			ID:     fmt.Sprintf("rId%d", i+2),
			Type:   relSlide,
			Target: fmt.Sprintf("slides/slide%d.xml", i+1),
		})
	}
	rels = append(rels, xRelationship{ID: fmt.Sprintf("rId%d", slideCount+2), Type: relTheme, Target: "theme/theme1.xml"})
	return relationships(rels...)
}

func coreProperties(p *models.GeneratedPresentationData) xCoreProperties {
	created := packageTime
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.UTC().Truncate(time.Second)
	}
	stamp := created.Format(time.RFC3339)
	return xCoreProperties{
		XmlnsCP:      "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		XmlnsDC:      "http://purl.org/dc/elements/1.1/",
		XmlnsDCTerms: "http://purl.org/dc/terms/",
		XmlnsXSI:     "http://www.w3.org/2001/XMLSchema-instance",
		Title:        p.Title,
		Subject:      p.Subtitle,
		Creator:      "FRESHR",
		Created:      xW3CDate{Type: "dcterms:W3CDTF", Value: stamp},
		Modified:     xW3CDate{Type: "dcterms:W3CDTF", Value: stamp},
	}
}
