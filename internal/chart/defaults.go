package chart

import "github.com/cleared-dev/balancete/internal/model"

// DefaultChart returns the default chart of accounts for an entity type.
// IDs are left empty; the store assigns them on insert.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "servicos":
		return servicesChart()
	default:
		return servicesChart()
	}
}

func servicesChart() []model.Account {
	return []model.Account{
		synthetic("1", "Ativo", model.AccountTypeAsset),
		synthetic("1.1", "Ativo Circulante", model.AccountTypeAsset),
		analytical("1.1.1", "Caixa", model.AccountTypeAsset),
		analytical("1.1.2", "Bancos Conta Movimento", model.AccountTypeAsset),
		analytical("1.1.3", "Clientes a Receber", model.AccountTypeAsset),
		synthetic("2", "Passivo", model.AccountTypeLiability),
		synthetic("2.1", "Passivo Circulante", model.AccountTypeLiability),
		analytical("2.1.1", "Fornecedores", model.AccountTypeLiability),
		analytical("2.1.2", "Impostos a Recolher", model.AccountTypeLiability),
		analytical("2.1.3", "Capital Social", model.AccountTypeLiability),
		synthetic("3", "Receitas", model.AccountTypeRevenue),
		analytical("3.1", "Honorarios Contabeis", model.AccountTypeRevenue),
		analytical("3.2", "Receitas Financeiras", model.AccountTypeRevenue),
		synthetic("4", "Despesas", model.AccountTypeExpense),
		synthetic("4.1", "Despesas Administrativas", model.AccountTypeExpense),
		analytical("4.1.1", "Aluguel", model.AccountTypeExpense),
		analytical("4.1.2", "Software e Assinaturas", model.AccountTypeExpense),
		analytical("4.2", "Despesas Bancarias", model.AccountTypeExpense),
		synthetic("5", "Custos", model.AccountTypeCost),
		analytical("5.1", "Custo dos Servicos Prestados", model.AccountTypeCost),
	}
}

func synthetic(code, name string, typ model.AccountType) model.Account {
	a := analytical(code, name, typ)
	a.IsSynthetic = true
	return a
}

func analytical(code, name string, typ model.AccountType) model.Account {
	nature, _ := model.NatureOf(typ)
	return model.Account{Code: code, Name: name, Type: typ, Nature: nature, IsActive: true}
}
