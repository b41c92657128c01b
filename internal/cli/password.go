package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var errEmptyPassword = errors.New("password must not be empty")

// readPassword reads one line from stdin, hiding input when stdin is a
// terminal. Piped input is read as is.
func readPassword(stdin *os.File, prompt io.Writer) ([]byte, error) {
	if stdin == nil {
		return nil, errors.New("stdin unavailable")
	}
	fmt.Fprint(prompt, "Admin password: ")

	restore, err := disableEcho(stdin)
	if err == nil {
		defer func() {
			restore()
			fmt.Fprintln(prompt)
		}()
	}
	return readLine(stdin)
}

func readLine(reader io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func hashPassword(password []byte, cost int) (string, error) {
	if len(strings.TrimSpace(string(password))) == 0 {
		return "", errEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
