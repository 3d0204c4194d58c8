// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/ewfx/gaied-deep-learners/internal/models"
)

// parseMIME decodes an RFC 5322 message. Every text/plain part contributes
// to the body, decoded with its declared charset; any part carrying a
// filename becomes an attachment.
func parseMIME(raw []byte, depth int) (*models.ParsedMessage, error) {
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: read message: %v", ErrMalformedContainer, err)
	}

	msg := models.NewParsedMessage()
	msg.Headers[models.HeaderSubject] = decodeHeaderWords(m.Header.Get("Subject"))
	msg.Headers[models.HeaderFrom] = decodeHeaderWords(m.Header.Get("From"))
	msg.Headers[models.HeaderTo] = decodeHeaderWords(m.Header.Get("To"))
	msg.Headers[models.HeaderCC] = decodeHeaderWords(m.Header.Get("Cc"))
	msg.Headers[models.HeaderDate] = m.Header.Get("Date")

	contentType := m.Header.Get("Content-Type")
	encoding := m.Header.Get("Content-Transfer-Encoding")

	var body strings.Builder
	if err := walkPart(msg, &body, contentType, encoding, "", m.Body, depth); err != nil {
		return nil, err
	}
	msg.Body = body.String()

	return msg, nil
}

// walkPart handles one MIME entity: multipart entities recurse into their
// sub-parts, text/plain entities feed the body, filename-bearing entities
// become attachments. Everything else (text/html alternatives, calendar
// parts) is skipped.
func walkPart(msg *models.ParsedMessage, body *strings.Builder, contentType, encoding, filename string, r io.Reader, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: multipart depth exceeds %d", ErrNestingTooDeep, MaxDepth)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// No or broken Content-Type on a top-level message defaults to
		// text/plain per RFC 2045.
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("%w: multipart without boundary", ErrMalformedContainer)
		}
		mr := multipart.NewReader(r, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: next part: %v", ErrMalformedContainer, err)
			}
			err = walkPart(
				msg, body,
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				decodeHeaderWords(part.FileName()),
				part, depth+1,
			)
			if err != nil {
				return err
			}
		}
	}

	// A nested message rarely carries a filename; give it a synthetic one so
	// it survives as an attachment and can re-enter the parser.
	if filename == "" && mediaType == "message/rfc822" {
		filename = "message.eml"
	}

	if filename != "" {
		payload, err := io.ReadAll(decodeTransfer(r, encoding))
		if err != nil {
			return fmt.Errorf("%w: attachment %s: %v", ErrMalformedContainer, filename, err)
		}
		msg.Attachments = append(msg.Attachments, models.AttachmentRef{
			Filename:    filename,
			ContentType: bestContentType(mediaType, payload),
			Payload:     payload,
		})
		return nil
	}

	if mediaType == "text/plain" {
		data, err := io.ReadAll(decodeTransfer(r, encoding))
		if err != nil {
			return fmt.Errorf("%w: body part: %v", ErrMalformedContainer, err)
		}
		body.WriteString(decodeCharset(data, params["charset"]))
	}

	return nil
}

// decodeTransfer undoes the Content-Transfer-Encoding of a part.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// decodeCharset converts part bytes to a UTF-8 string using the declared
// character set, substituting invalid bytes rather than failing.
func decodeCharset(data []byte, charset string) string {
	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		if enc, err := ianaindex.MIME.Encoding(charset); err == nil && enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
				data = decoded
			}
		}
	}
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

// decodeHeaderWords decodes RFC 2047 encoded words, keeping the raw text
// when decoding fails.
func decodeHeaderWords(s string) string {
	dec := &mime.WordDecoder{
		CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
			enc, err := ianaindex.MIME.Encoding(charset)
			if err != nil || enc == nil {
				return nil, fmt.Errorf("unsupported charset %q", charset)
			}
			return enc.NewDecoder().Reader(input), nil
		},
	}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// bestContentType keeps the declared MIME type unless it is missing or
// generic, in which case the payload is sniffed.
func bestContentType(declared string, payload []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(payload).String()
}
