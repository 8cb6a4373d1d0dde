// Package types provides core types shared across the roundtable engine.
// This package has ZERO dependencies on other roundtable packages to avoid
// circular imports. All other packages should import types from here.
package types
