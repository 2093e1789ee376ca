package main

import (
	"errors"
	"testing"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

func TestExitCodeForRecipeErrorIsTwo(t *testing.T) {
	if got := exitCodeFor(&ragouterr.RecipeError{Msg: "bad recipe"}); got != 2 {
		t.Fatalf("exitCodeFor(RecipeError) = %d, want 2", got)
	}
}

func TestExitCodeForOtherErrorsIsOne(t *testing.T) {
	if got := exitCodeFor(&ragouterr.BackendError{Msg: "no tool"}); got != 1 {
		t.Fatalf("exitCodeFor(BackendError) = %d, want 1", got)
	}
	if got := exitCodeFor(errors.New("plain")); got != 1 {
		t.Fatalf("exitCodeFor(plain error) = %d, want 1", got)
	}
}
