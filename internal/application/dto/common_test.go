package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	cases := []struct {
		name string
		in   dto.PageRequest
		want dto.PageRequest
	}{
		{"vacía usa el límite por defecto", dto.PageRequest{}, dto.PageRequest{Limit: dto.DefaultPageLimit}},
		{"respeta el límite pedido", dto.PageRequest{Limit: 5, Offset: 10}, dto.PageRequest{Limit: 5, Offset: 10}},
		{"acota al máximo", dto.PageRequest{Limit: 1000}, dto.PageRequest{Limit: dto.MaxPageLimit}},
		{"offset negativo vuelve a cero", dto.PageRequest{Limit: 3, Offset: -4}, dto.PageRequest{Limit: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			assert.Equal(t, tc.want, got)
			assert.Equal(t, dto.PageResponse{Limit: got.Limit, Offset: got.Offset}, got.Echo())
		})
	}
}
