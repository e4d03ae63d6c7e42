// catalog implementa a filtragem e a paginação em janela da listagem de
// pools. As funções são puras: o mesmo filtrado + mesma página produzem
// sempre o mesmo resultado, sem cursor escondido entre chamadas.
package catalog

import (
	"errors"
	"strings"

	"github.com/radieske/pool-bet-platform/internal/pool-service/dto"
)

// SportAll desativa o filtro exato de esporte.
const SportAll = "all"

var ErrInvalidPage = errors.New("invalid page parameters")

// Filter retorna os pools cujo título, esporte ou liga contém query
// (case-insensitive), intersectado com o esporte exato quando informado.
// A ordem relativa dos pools de entrada é preservada.
func Filter(pools []dto.PoolSummary, query, sport string) []dto.PoolSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	s := strings.ToLower(strings.TrimSpace(sport))

	out := make([]dto.PoolSummary, 0, len(pools))
	for _, p := range pools {
		if s != "" && s != SportAll && !strings.EqualFold(p.Sport, s) {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p dto.PoolSummary, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Sport), q) ||
		strings.Contains(strings.ToLower(p.League), q)
}

// Page retorna a janela [(page-1)*size, page*size) do filtrado.
// Página vazia sinaliza fim da listagem; o consumidor concatena páginas
// sucessivas sem duplicar nem pular registros.
func Page(filtered []dto.PoolSummary, pageNumber, pageSize int) ([]dto.PoolSummary, error) {
	if pageNumber < 1 || pageSize < 1 {
		return nil, ErrInvalidPage
	}

	start := (pageNumber - 1) * pageSize
	if start >= len(filtered) {
		return []dto.PoolSummary{}, nil
	}

	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

// HasMore informa se existe página após a janela retornada.
func HasMore(filteredLen, pageNumber, pageSize int) bool {
	return pageNumber*pageSize < filteredLen
}
