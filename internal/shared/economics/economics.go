// economics concentra toda a aritmética de pools em um único lugar.
// As telas antigas recalculavam essas fórmulas separadamente; aqui é a
// fonte única usada por handlers, settlement e respostas da API.
package economics

import (
	"errors"
	"math"
	"strconv"
)

var (
	// ErrInvalidPoolState indica pool com total zerado ou aposta maior que o total
	ErrInvalidPoolState = errors.New("invalid pool state")

	// ErrInvalidAmount indica valor não positivo em uma operação monetária
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidFeeRate indica taxa percentual fora do intervalo [0,1)
	ErrInvalidFeeRate = errors.New("invalid fee rate")
)

// Taxas e limites da plataforma
const (
	// PoolWithdrawFeeRate é a taxa percentual cobrada ao sair de um pool aberto
	PoolWithdrawFeeRate = 0.05

	// WalletWithdrawFeeCents é a taxa fixa de saque da carteira para endereço externo
	WalletWithdrawFeeCents = int64(500)

	// ClaimFeeCents é a taxa fixa descontada ao resgatar um prêmio
	ClaimFeeCents = int64(250)

	// Faixa permitida para o percentual dos vencedores
	WinSplitMin = 60
	WinSplitMax = 90
)

// ContributionShare retorna a fração da aposta sobre o total do pool (0..1).
func ContributionShare(betCents, totalPoolCents int64) (float64, error) {
	if totalPoolCents == 0 || betCents > totalPoolCents {
		return 0, ErrInvalidPoolState
	}
	if betCents <= 0 {
		return 0, ErrInvalidAmount
	}
	return float64(betCents) / float64(totalPoolCents), nil
}

// SharePercent formata a participação como percentual com uma casa decimal,
// ex: aposta de $50 em pool de $600 => "8.3".
func SharePercent(betCents, totalPoolCents int64) (string, error) {
	share, err := ContributionShare(betCents, totalPoolCents)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(share*100, 'f', 1, 64), nil
}

// PotentialPayout calcula o prêmio potencial de um participante:
// (total * winSplit / 100) * (aposta / total).
// A forma não simplificada é mantida de propósito: é o contrato exibido
// nas telas, e a identidade com aposta*winSplit/100 é verificada em teste.
func PotentialPayout(totalPoolCents int64, winSplit int, betCents int64) (int64, error) {
	if totalPoolCents == 0 || betCents > totalPoolCents {
		return 0, ErrInvalidPoolState
	}
	if betCents <= 0 {
		return 0, ErrInvalidAmount
	}
	payout := (float64(totalPoolCents) * float64(winSplit) / 100) * (float64(betCents) / float64(totalPoolCents))
	return int64(math.Round(payout)), nil
}

// NetWithdrawal aplica a taxa percentual de saída de pool e retorna o
// valor líquido devolvido e a taxa retida. net + fee == amount, sempre.
func NetWithdrawal(amountCents int64, feeRate float64) (net, fee int64, err error) {
	if amountCents <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if feeRate < 0 || feeRate >= 1 {
		return 0, 0, ErrInvalidFeeRate
	}
	fee = int64(math.Round(float64(amountCents) * feeRate))
	return amountCents - fee, fee, nil
}

// WalletWithdrawalTotal retorna o débito total de um saque da carteira
// (valor solicitado + taxa fixa). O chamador compara com o saldo.
func WalletWithdrawalTotal(amountCents, feeCents int64) (int64, error) {
	if amountCents <= 0 || feeCents < 0 {
		return 0, ErrInvalidAmount
	}
	return amountCents + feeCents, nil
}

// NetClaim retorna o valor líquido de um resgate de prêmio após a taxa fixa.
func NetClaim(winningsCents, feeCents int64) (int64, error) {
	if winningsCents <= 0 || feeCents < 0 {
		return 0, ErrInvalidAmount
	}
	if feeCents > winningsCents {
		return 0, ErrInvalidAmount
	}
	return winningsCents - feeCents, nil
}

// WinnerPot retorna a parte do total reservada aos vencedores.
func WinnerPot(totalPoolCents int64, winSplit int) int64 {
	return int64(math.Round(float64(totalPoolCents) * float64(winSplit) / 100))
}

// SettlementPayout reparte o pote proporcionalmente à aposta vencedora:
// pot * aposta / somaDasApostasVencedoras.
func SettlementPayout(potCents, betCents, winnersTotalCents int64) (int64, error) {
	if winnersTotalCents == 0 || betCents > winnersTotalCents {
		return 0, ErrInvalidPoolState
	}
	if betCents <= 0 || potCents < 0 {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(float64(potCents) * float64(betCents) / float64(winnersTotalCents))), nil
}

// SettlementPayouts reparte o pote inteiro entre as apostas vencedoras,
// proporcional a cada aposta. O arredondamento por vencedor pode sobrar
// ou faltar alguns cents; o resíduo vai para o último da lista, de forma
// que sum(payouts) == potCents sempre.
func SettlementPayouts(potCents int64, betsCents []int64) ([]int64, error) {
	if len(betsCents) == 0 {
		return nil, ErrInvalidPoolState
	}
	if potCents < 0 {
		return nil, ErrInvalidAmount
	}
	var total int64
	for _, b := range betsCents {
		if b <= 0 {
			return nil, ErrInvalidAmount
		}
		total += b
	}

	out := make([]int64, len(betsCents))
	var allocated int64
	for i, b := range betsCents[:len(betsCents)-1] {
		p := int64(math.Round(float64(potCents) * float64(b) / float64(total)))
		// nunca aloca além do que resta, senão o último ficaria negativo
		if p > potCents-allocated {
			p = potCents - allocated
		}
		out[i] = p
		allocated += p
	}
	out[len(out)-1] = potCents - allocated
	return out, nil
}

// ValidWinSplit informa se o percentual dos vencedores está na faixa aceita.
func ValidWinSplit(winSplit int) bool {
	return winSplit >= WinSplitMin && winSplit <= WinSplitMax
}
