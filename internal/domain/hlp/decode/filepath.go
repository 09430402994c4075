package decode

import "strings"

func init() {
	register("filepath", DecoderFunc(decodeFilepath))
}

// decodeFilepath splits a token into path, drive_letter, folder, name,
// extension. A `<L>:\` prefix triggers Windows-form splitting (backslash
// separators, drive letter uppercased); otherwise Unix form is used
// (forward-slash separators). `filepath/UNIX` forces Unix interpretation
// even when the token looks like a Windows path, treating `\` and `:` as
// ordinary filename bytes.
func decodeFilepath(input string, cursor int, args []string, stop string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	n := consumeToken(rest, stop)
	if n == 0 {
		return nil, cursor, false
	}
	token := rest[:n]

	forceUnix := len(args) > 0 && strings.EqualFold(args[0], "UNIX")

	r := NewParseResult()
	r.Set("path", String(token))

	if !forceUnix && isWindowsPath(token) {
		drive := strings.ToUpper(token[:1])
		r.Set("drive_letter", String(drive))
		body := token[3:] // past "C:\"
		folder, name, ext := splitPath(body, '\\')
		if folder != "" {
			r.Set("folder", String(folder))
		}
		r.Set("name", String(name))
		if ext != "" {
			r.Set("extension", String(ext))
		}
		return r, cursor + n, true
	}

	folder, name, ext := splitPath(token, '/')
	if folder != "" {
		r.Set("folder", String(folder))
	}
	r.Set("name", String(name))
	if ext != "" {
		r.Set("extension", String(ext))
	}
	return r, cursor + n, true
}

func isWindowsPath(token string) bool {
	if len(token) < 3 {
		return false
	}
	letter := token[0]
	isLetter := (letter >= 'A' && letter <= 'Z') || (letter >= 'a' && letter <= 'z')
	return isLetter && token[1] == ':' && token[2] == '\\'
}

// splitPath divides body on sep into a folder prefix and a base filename,
// then splits the base into name/extension on the last '.'.
func splitPath(body string, sep byte) (folder, name, ext string) {
	idx := strings.LastIndexByte(body, sep)
	base := body
	if idx >= 0 {
		folder = body[:idx]
		base = body[idx+1:]
	}
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		name = base[:dot]
		ext = base[dot+1:]
	} else {
		name = base
	}
	return folder, name, ext
}
