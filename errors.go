/*
 * errors.go, part of pdbsite.
 *
 * Copyright 2026 The pdbsite authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package pdbsite

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Use errors.Is to match them, the library wraps them with
// the name of the function that failed.
var (
	//The structure, chain, atom or cross-reference requested is not there.
	ErrNotFound = errors.New("pdbsite: not found")
	//Input that could not be parsed and could not be skipped either.
	ErrMalformed = errors.New("pdbsite: malformed input")
	//Nothing was found and nothing was attempted for a protein.
	ErrNoResult = errors.New("pdbsite: no result")
)

// Error is the error type returned by this library. The Decorate method allows
// adding the names of the functions the error passed through, without
// changing its type.
type Error struct {
	message string
	deco    []string
	err     error
}

// Error returns a string with an error message.
func (err *Error) Error() string {
	msg := err.message
	if len(err.deco) > 0 {
		msg = strings.Join(err.deco, ": ") + ": " + msg
	}
	if err.err != nil {
		return fmt.Sprintf("%s: %v", msg, err.err)
	}
	return msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice. An empty string just returns the current slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append([]string{dec}, err.deco...)
	return err.deco
}

func (err *Error) Unwrap() error { return err.err }

// errDecorate decorates err with the caller's name if it is an *Error,
// otherwise it wraps it into a new one.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
		return err
	}
	return &Error{message: caller, err: err}
}

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNilStructure = PanicMsg("pdbsite: nil structure")
	ErrAtomIndex    = PanicMsg("pdbsite: atom index out of range")
)
