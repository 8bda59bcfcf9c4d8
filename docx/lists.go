package docx

import (
	"strconv"
	"strings"

	"github.com/rybkakrzy/importer-sub001/model"
)

// levelDef is the resolved definition of one numbering level.
type levelDef struct {
	format  string // numFmt value
	text    string // lvlText pattern
	startAt int
}

func (l levelDef) ordered() bool {
	return l.format != "bullet" && l.format != "none" && l.format != ""
}

// NumberingResolver resolves numbering definitions from numbering.xml and
// keeps the running counters needed to render list markers.
type NumberingResolver struct {
	abstractNums map[string]*abstractNumXML // abstractNumId -> definition
	nums         map[string]*numXML         // numId -> instance
	counters     map[string][]int           // abstractNumId -> counter per level
	lastNum      map[string]string          // abstractNumId -> numId that last advanced it
}

// NewNumberingResolver creates a resolver from parsed numbering.xml.
func NewNumberingResolver(numbering *numberingXML) *NumberingResolver {
	nr := &NumberingResolver{
		abstractNums: make(map[string]*abstractNumXML),
		nums:         make(map[string]*numXML),
		counters:     make(map[string][]int),
		lastNum:      make(map[string]string),
	}

	if numbering == nil {
		return nr
	}

	for i := range numbering.AbstractNums {
		an := &numbering.AbstractNums[i]
		nr.abstractNums[an.AbstractNumID] = an
	}
	for i := range numbering.Nums {
		num := &numbering.Nums[i]
		nr.nums[num.NumID] = num
	}

	return nr
}

// IsListParagraph returns true if the numbering properties make a list item.
func IsListParagraph(numID string) bool {
	return numID != "" && numID != "0"
}

// ResolveLevel returns the definition for a given numId and level.
func (nr *NumberingResolver) ResolveLevel(numID string, level int) levelDef {
	def := levelDef{format: "bullet", startAt: 1}

	num, ok := nr.nums[numID]
	if !ok {
		return def
	}
	abstractNum, ok := nr.abstractNums[num.AbstractNumID.Val]
	if !ok {
		return def
	}

	levelStr := strconv.Itoa(level)
	for _, lvl := range abstractNum.Levels {
		if lvl.ILvl != levelStr {
			continue
		}
		def.format = lvl.NumFmt.Val
		def.text = lvl.LvlText.Val
		if s, err := strconv.Atoi(lvl.Start.Val); err == nil {
			def.startAt = s
		}
		break
	}
	for _, o := range num.Overrides {
		if o.ILvl == levelStr {
			if s, err := strconv.Atoi(o.StartOverride.Val); err == nil {
				def.startAt = s
			}
		}
	}
	return def
}

// Next advances the counter for (numID, level) and returns the list info
// for the paragraph.
func (nr *NumberingResolver) Next(numID string, level int) *model.ListInfo {
	if level < 0 || level > 8 {
		level = 0
	}
	def := nr.ResolveLevel(numID, level)
	info := &model.ListInfo{Ordered: def.ordered(), Level: level}

	key := numID
	if num, ok := nr.nums[numID]; ok {
		key = "a" + num.AbstractNumID.Val
	}
	counters := nr.counters[key]
	if counters == nil {
		counters = make([]int, 9)
		nr.counters[key] = counters
	}
	// A different num instance over the same abstract definition restarts
	// only when it carries its own start override.
	if last := nr.lastNum[key]; last != numID {
		if num, ok := nr.nums[numID]; ok && len(num.Overrides) > 0 {
			for i := range counters {
				counters[i] = 0
			}
		}
		nr.lastNum[key] = numID
	}

	if counters[level] == 0 {
		counters[level] = def.startAt
	} else {
		counters[level]++
	}
	for i := level + 1; i < len(counters); i++ {
		counters[i] = 0
	}

	if !info.Ordered {
		info.Marker = getBulletChar(def.text, level)
		return info
	}
	info.Marker = nr.formatMarker(numID, def, counters, level)
	return info
}

// formatMarker expands an lvlText pattern such as "%1.%2." with the
// current counters.
func (nr *NumberingResolver) formatMarker(numID string, def levelDef, counters []int, level int) string {
	pattern := def.text
	if pattern == "" {
		pattern = "%" + strconv.Itoa(level+1) + "."
	}

	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '%' && i+1 < len(pattern) && pattern[i+1] >= '1' && pattern[i+1] <= '9' {
			l := int(pattern[i+1] - '1')
			format := def.format
			if l != level {
				format = nr.ResolveLevel(numID, l).format
			}
			n := counters[l]
			if n == 0 {
				n = 1
			}
			sb.WriteString(formatNumber(n, format))
			i++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// formatNumber renders n in a WordprocessingML number format.
func formatNumber(n int, format string) string {
	switch format {
	case "lowerLetter":
		return letters(n, 'a')
	case "upperLetter":
		return letters(n, 'A')
	case "lowerRoman":
		return strings.ToLower(roman(n))
	case "upperRoman":
		return roman(n)
	case "decimalZero":
		if n < 10 {
			return "0" + strconv.Itoa(n)
		}
		return strconv.Itoa(n)
	default:
		return strconv.Itoa(n)
	}
}

// letters renders 1->a, 26->z, 27->aa as Word does.
func letters(n int, base byte) string {
	if n <= 0 {
		return ""
	}
	count := (n-1)/26 + 1
	return strings.Repeat(string(rune(base)+rune((n-1)%26)), count)
}

func roman(n int) string {
	if n <= 0 || n >= 4000 {
		return strconv.Itoa(n)
	}
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var sb strings.Builder
	for i, v := range values {
		for n >= v {
			sb.WriteString(symbols[i])
			n -= v
		}
	}
	return sb.String()
}

// getBulletChar returns the appropriate bullet character for the level.
func getBulletChar(lvlText string, level int) string {
	bullets := []string{"•", "○", "■", "□", "▪", "▫", "►", "◦"}

	if lvlText != "" && !strings.Contains(lvlText, "%") {
		// Word often uses Symbol/Wingdings fonts with PUA characters (U+F000-U+F0FF)
		if isRenderableBullet(lvlText) {
			return lvlText
		}
	}

	if level < len(bullets) {
		return bullets[level]
	}
	return "•"
}

// isRenderableBullet checks if a bullet character will render properly.
// Returns false for Private Use Area characters that require special fonts.
func isRenderableBullet(s string) bool {
	for _, r := range s {
		if r >= 0xE000 && r <= 0xF8FF {
			return false
		}
		if r < 0x20 {
			return false
		}
	}
	return len(s) > 0
}
