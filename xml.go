package main

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
)

// WriteTokensXML dumps the token stream as a <tokens> document, one element per token.
func WriteTokensXML(w io.Writer, t TokenScanner) error {
	out := bufio.NewWriter(w)
	fmt.Fprintln(out, "<tokens>")
	for t.Scan() {
		token := t.Token()
		fmt.Fprintf(out, "<%s>", token.tokenType)
		if err := xml.EscapeText(out, []byte(token.terminal)); err != nil {
			return err
		}
		fmt.Fprintf(out, "</%s>\n", token.tokenType)
	}
	if err := t.Err(); err != nil {
		return err
	}
	fmt.Fprintln(out, "</tokens>")
	return out.Flush()
}
