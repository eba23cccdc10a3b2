// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package validation

import (
	"strings"
	"testing"
)

type listRequest struct {
	Category string   `validate:"omitempty,oneof=all concert musical"`
	PageSize int      `validate:"min=1,max=100"`
	Page     int      `validate:"min=1"`
	Opens    string   `validate:"omitempty,isodate"`
	Dates    []string `validate:"required,min=1,dive,isodate"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := func() listRequest {
		return listRequest{Category: "musical", PageSize: 20, Page: 1, Dates: []string{"2026-03-14"}}
	}

	tests := []struct {
		name      string
		mutate    func(*listRequest)
		wantField string
		wantTag   string
	}{
		{name: "valid", mutate: func(*listRequest) {}},
		{name: "bad category", mutate: func(r *listRequest) { r.Category = "opera" }, wantField: "Category", wantTag: "oneof"},
		{name: "page size too big", mutate: func(r *listRequest) { r.PageSize = 1000 }, wantField: "PageSize", wantTag: "max"},
		{name: "zero page", mutate: func(r *listRequest) { r.Page = 0 }, wantField: "Page", wantTag: "min"},
		{name: "dotted date", mutate: func(r *listRequest) { r.Opens = "2026.03.14" }, wantField: "Opens", wantTag: "isodate"},
		{name: "impossible date", mutate: func(r *listRequest) { r.Opens = "2026-02-30" }, wantField: "Opens", wantTag: "isodate"},
		{name: "no dates", mutate: func(r *listRequest) { r.Dates = nil }, wantField: "Dates", wantTag: "required"},
		{name: "bad date in list", mutate: func(r *listRequest) { r.Dates = []string{"2026-03-14", "soon"} }, wantField: "Dates[1]", wantTag: "isodate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			verr := ValidateStruct(&req)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("got %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	req := listRequest{Category: "opera", PageSize: 0, Page: 1, Dates: []string{"2026-03-14"}}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Category must be one of") ||
		!strings.Contains(apiErr.Message, "PageSize must be at least 1") {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-field errors should list fields")
	}

	single := listRequest{PageSize: 10, Page: 1, Dates: []string{"x"}}
	one := ValidateStruct(&single).ToAPIError()
	if one.Details["field"] != "Dates[0]" {
		t.Errorf("single error details = %v", one.Details)
	}
}
