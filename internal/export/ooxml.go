package export

import (
	"encoding/xml"
	"fmt"
)

// PresentationML element types. Prefixed names are written literally; the
// namespaces are declared on each part's root element.

type xSlide struct {
	XMLName   xml.Name   `xml:"p:sld"`
	XmlnsA    string     `xml:"xmlns:a,attr"`
	XmlnsR    string     `xml:"xmlns:r,attr"`
	XmlnsP    string     `xml:"xmlns:p,attr"`
	CSld      xCSld      `xml:"p:cSld"`
	ClrMapOvr xClrMapOvr `xml:"p:clrMapOvr"`
}

type xClrMapOvr struct {
	MasterClrMapping struct{} `xml:"a:masterClrMapping"`
}

type xCSld struct {
	Bg     *xBg    `xml:"p:bg,omitempty"`
	SpTree xSpTree `xml:"p:spTree"`
}

type xBg struct {
	BgPr xBgPr `xml:"p:bgPr"`
}

type xBgPr struct {
	SolidFill xSolidFill `xml:"a:solidFill"`
	EffectLst struct{}   `xml:"a:effectLst"`
}

type xSolidFill struct {
	SrgbClr xVal `xml:"a:srgbClr"`
}

type xVal struct {
	Val string `xml:"val,attr"`
}

type xSpTree struct {
	NvGrpSpPr xNvGrpSpPr `xml:"p:nvGrpSpPr"`
	GrpSpPr   xGrpSpPr   `xml:"p:grpSpPr"`
	Shapes    []xShape   `xml:"p:sp"`
}

type xNvGrpSpPr struct {
	CNvPr      xCNvPr   `xml:"p:cNvPr"`
	CNvGrpSpPr struct{} `xml:"p:cNvGrpSpPr"`
	NvPr       struct{} `xml:"p:nvPr"`
}

type xCNvPr struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type xGrpSpPr struct {
	Xfrm xGrpXfrm `xml:"a:xfrm"`
}

type xGrpXfrm struct {
	Off   xPoint `xml:"a:off"`
	Ext   xSize  `xml:"a:ext"`
	ChOff xPoint `xml:"a:chOff"`
	ChExt xSize  `xml:"a:chExt"`
}

type xPoint struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type xSize struct {
	Cx int64 `xml:"cx,attr"`
	Cy int64 `xml:"cy,attr"`
}

type xShape struct {
	NvSpPr xNvSpPr  `xml:"p:nvSpPr"`
	SpPr   xSpPr    `xml:"p:spPr"`
	TxBody *xTxBody `xml:"p:txBody,omitempty"`
}

type xNvSpPr struct {
	CNvPr   xCNvPr   `xml:"p:cNvPr"`
	CNvSpPr xCNvSpPr `xml:"p:cNvSpPr"`
	NvPr    struct{} `xml:"p:nvPr"`
}

type xCNvSpPr struct {
	TxBox string `xml:"txBox,attr,omitempty"`
}

type xSpPr struct {
	Xfrm      xXfrm       `xml:"a:xfrm"`
	PrstGeom  xPrstGeom   `xml:"a:prstGeom"`
	SolidFill *xSolidFill `xml:"a:solidFill,omitempty"`
	NoFill    *struct{}   `xml:"a:noFill,omitempty"`
}

type xXfrm struct {
	Off xPoint `xml:"a:off"`
	Ext xSize  `xml:"a:ext"`
}

type xPrstGeom struct {
	Prst  string   `xml:"prst,attr"`
	AvLst struct{} `xml:"a:avLst"`
}

type xTxBody struct {
	BodyPr     xBodyPr      `xml:"a:bodyPr"`
	LstStyle   struct{}     `xml:"a:lstStyle"`
	Paragraphs []xParagraph `xml:"a:p"`
}

type xBodyPr struct {
	Wrap   string `xml:"wrap,attr"`
	RtlCol string `xml:"rtlCol,attr"`
	Anchor string `xml:"anchor,attr,omitempty"`
}

type xParagraph struct {
	PPr  *xPPr  `xml:"a:pPr,omitempty"`
	Runs []xRun `xml:"a:r"`
}

type xPPr struct {
	MarL      int64      `xml:"marL,attr,omitempty"`
	Indent    int64      `xml:"indent,attr,omitempty"`
	Algn      string     `xml:"algn,attr,omitempty"`
	SpcBef    *xSpacing  `xml:"a:spcBef,omitempty"`
	SpcAft    *xSpacing  `xml:"a:spcAft,omitempty"`
	BuFont    *xTypeface `xml:"a:buFont,omitempty"`
	BuAutoNum *xAutoNum  `xml:"a:buAutoNum,omitempty"`
}

type xSpacing struct {
	SpcPts xVal `xml:"a:spcPts"`
}

type xTypeface struct {
	Typeface string `xml:"typeface,attr"`
}

type xAutoNum struct {
	Type string `xml:"type,attr"`
}

type xRun struct {
	RPr xRPr   `xml:"a:rPr"`
	T   string `xml:"a:t"`
}

type xRPr struct {
	Lang      string      `xml:"lang,attr"`
	Sz        int         `xml:"sz,attr"`
	B         string      `xml:"b,attr,omitempty"`
	I         string      `xml:"i,attr,omitempty"`
	Dirty     string      `xml:"dirty,attr"`
	SolidFill *xSolidFill `xml:"a:solidFill,omitempty"`
}

type xPresentation struct {
	XMLName      xml.Name       `xml:"p:presentation"`
	XmlnsA       string         `xml:"xmlns:a,attr"`
	XmlnsR       string         `xml:"xmlns:r,attr"`
	XmlnsP       string         `xml:"xmlns:p,attr"`
	SldMasterIDs []xSldMasterID `xml:"p:sldMasterIdLst>p:sldMasterId"`
	SldIDs       []xSldID       `xml:"p:sldIdLst>p:sldId"`
	SldSz        xSize          `xml:"p:sldSz"`
	NotesSz      xSize          `xml:"p:notesSz"`
}

type xSldMasterID struct {
	ID  uint32 `xml:"id,attr"`
	RID string `xml:"r:id,attr"`
}

type xSldID struct {
	ID  int    `xml:"id,attr"`
	RID string `xml:"r:id,attr"`
}

type xTypes struct {
	XMLName   xml.Name    `xml:"Types"`
	Xmlns     string      `xml:"xmlns,attr"`
	Defaults  []xDefault  `xml:"Default"`
	Overrides []xOverride `xml:"Override"`
}

type xDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xRelationships struct {
	XMLName       xml.Name        `xml:"Relationships"`
	Xmlns         string          `xml:"xmlns,attr"`
	Relationships []xRelationship `xml:"Relationship"`
}

type xRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xCoreProperties struct {
	XMLName      xml.Name `xml:"cp:coreProperties"`
	XmlnsCP      string   `xml:"xmlns:cp,attr"`
	XmlnsDC      string   `xml:"xmlns:dc,attr"`
	XmlnsDCTerms string   `xml:"xmlns:dcterms,attr"`
	XmlnsXSI     string   `xml:"xmlns:xsi,attr"`
	Title        string   `xml:"dc:title"`
	Subject      string   `xml:"dc:subject"`
	Creator      string   `xml:"dc:creator"`
	Created      xW3CDate `xml:"dcterms:created"`
	Modified     xW3CDate `xml:"dcterms:modified"`
}

type xW3CDate struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

type xAppProperties struct {
	XMLName     xml.Name `xml:"Properties"`
	Xmlns       string   `xml:"xmlns,attr"`
	Application string   `xml:"Application"`
	Slides      int      `xml:"Slides"`
	Company     string   `xml:"Company"`
}

const groupShapeXML = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const slideMasterXML = xml.Header +
	`<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + groupShapeXML + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const slideLayoutXML = xml.Header +
	`<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + groupShapeXML + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
	`</p:sldLayout>`

// themeXML builds the deck's DrawingML theme with the palette as its color scheme.
func themeXML(pal Palette) string {
	clr := func(name, hex string) string {
		return fmt.Sprintf(`<a:%s><a:srgbClr val="%s"/></a:%s>`, name, hex, name)
	}
	fill := `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	line := func(w int) string {
		return fmt.Sprintf(`<a:ln w="%d">%s</a:ln>`, w, fill)
	}
	effect := `<a:effectStyle><a:effectLst/></a:effectStyle>`
	font := `<a:latin typeface="Arial"/><a:ea typeface=""/><a:cs typeface=""/>`

	return xml.Header +
		`<a:theme xmlns:a="` + nsA + `" name="FRESHR"><a:themeElements>` +
		`<a:clrScheme name="FRESHR">` +
		clr("dk1", pal.Text) + clr("lt1", "FFFFFF") + clr("dk2", pal.Primary) + clr("lt2", pal.Background) +
		clr("accent1", pal.Accent) + clr("accent2", pal.Secondary) + clr("accent3", "A5A5A5") +
		clr("accent4", "FFC000") + clr("accent5", "5B9BD5") + clr("accent6", "70AD47") +
		clr("hlink", "0563C1") + clr("folHlink", "954F72") +
		`</a:clrScheme>` +
		`<a:fontScheme name="FRESHR"><a:majorFont>` + font + `</a:majorFont><a:minorFont>` + font + `</a:minorFont></a:fontScheme>` +
		`<a:fmtScheme name="FRESHR">` +
		`<a:fillStyleLst>` + fill + fill + fill + `</a:fillStyleLst>` +
		`<a:lnStyleLst>` + line(6350) + line(12700) + line(19050) + `</a:lnStyleLst>` +
		`<a:effectStyleLst>` + effect + effect + effect + `</a:effectStyleLst>` +
		`<a:bgFillStyleLst>` + fill + fill + fill + `</a:bgFillStyleLst>` +
		`</a:fmtScheme>` +
		`</a:themeElements></a:theme>`
}
