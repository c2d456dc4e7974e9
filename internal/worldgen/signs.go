package worldgen

import (
	"fmt"
	"strings"
)

// signLineMax is the character capacity of one sign line.
const signLineMax = 15

// TruncateSignLine clips text to the sign line capacity.
func TruncateSignLine(s string) string {
	if len(s) <= signLineMax {
		return s
	}
	return s[:signLineMax]
}

// escapeSNBTString escapes text for use inside a single-quoted SNBT string
// that itself wraps a double-quoted JSON string.
func escapeSNBTString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// WallSign builds the wall sign block state with its four front lines.
// Lines are quoted plain strings, not wrapped JSON objects:
//
//	oak_wall_sign[facing=s]{front_text:{messages:['"l1"','"l2"','"l3"','"l4"']}}
func WallSign(facing string, lines [4]string) string {
	msgs := make([]string, 4)
	for i, line := range lines {
		msgs[i] = fmt.Sprintf(`'"%s"'`, escapeSNBTString(TruncateSignLine(line)))
	}
	return fmt.Sprintf("oak_wall_sign[facing=%s]{front_text:{messages:[%s]}}",
		facing, strings.Join(msgs, ","))
}

// SignCommand places a wall sign at the given position.
func SignCommand(x, y, z int, facing string, lines [4]string) string {
	return SetBlock(x, y, z, WallSign(facing, lines))
}

// ArchivedLines rewrites sign lines with a leading red [Archived] marker,
// keeping as much of the original text as fits.
func ArchivedLines(lines [4]string) [4]string {
	return [4]string{"[Archived]", lines[0], lines[1], lines[2]}
}

// ArchivedWallSign builds the archived variant of a wall sign: the same
// text pushed down one line under a red [Archived] header.
func ArchivedWallSign(facing string, lines [4]string) string {
	archived := ArchivedLines(lines)
	msgs := make([]string, 4)
	for i, line := range archived {
		text := escapeSNBTString(TruncateSignLine(line))
		if i == 0 {
			msgs[i] = fmt.Sprintf(`'{"text":"%s","color":"red"}'`, text)
		} else {
			msgs[i] = fmt.Sprintf(`'"%s"'`, text)
		}
	}
	return fmt.Sprintf("oak_wall_sign[facing=%s]{front_text:{messages:[%s]}}",
		facing, strings.Join(msgs, ","))
}

// BookPage is one page of a written book as a raw SNBT text component.
type BookPage struct {
	Text  string
	Bold  bool
	Color string
}

// SNBT renders the page as a raw SNBT component, not a quoted JSON string.
func (p BookPage) SNBT() string {
	var b strings.Builder
	fmt.Fprintf(&b, `[{text:"%s"`, escapeSNBTString(p.Text))
	if p.Bold {
		b.WriteString(",bold:true")
	}
	if p.Color != "" {
		fmt.Fprintf(&b, `,color:"%s"`, p.Color)
	}
	b.WriteString("}]")
	return b.String()
}

// LecternBookCommands places a lectern and merges a written book into it.
func LecternBookCommands(x, y, z int, facing, title, author string, pages []BookPage) []string {
	rendered := make([]string, len(pages))
	for i, p := range pages {
		rendered[i] = p.SNBT()
	}
	book := fmt.Sprintf(
		`{Book:{id:"minecraft:written_book",count:1,components:{"minecraft:written_book_content":{title:"%s",author:"%s",pages:[%s]}}}}`,
		escapeSNBTString(title), escapeSNBTString(author), strings.Join(rendered, ","))
	return []string{
		SetBlock(x, y, z, fmt.Sprintf("lectern[facing=%s,has_book=true]", facing)),
		DataMergeBlock(x, y, z, book),
	}
}
