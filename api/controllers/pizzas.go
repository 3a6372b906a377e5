package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sliceline/pizzeria-backend/api/responses"
	"github.com/sliceline/pizzeria-backend/api/validators"
	catalogsvc "github.com/sliceline/pizzeria-backend/internal/catalog"
	"github.com/sliceline/pizzeria-backend/pkg/logger"
)

func pizzaFilters(r *http.Request) catalogsvc.PizzaFilters {
	filters := catalogsvc.PizzaFilters{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filters.Category = &category
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("vegetarian")); raw != "" {
		if vegetarian, err := strconv.ParseBool(raw); err == nil {
			filters.Vegetarian = &vegetarian
		}
	}
	return filters
}

func PizzaList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pizzas, err := svc.ListPizzas(r.Context(), pizzaFilters(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pizzas)
	}
}

func PizzaDetail(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pizzaID, err := pathUUID(r, "pizzaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pizza, err := svc.GetPizza(r.Context(), pizzaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pizza)
	}
}

func ToppingList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		toppings, err := svc.ListToppings(r.Context(), false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toppings)
	}
}

func AdminPizzaCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload catalogsvc.CreatePizzaInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pizza, err := svc.CreatePizza(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pizza)
	}
}

func AdminPizzaUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pizzaID, err := pathUUID(r, "pizzaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload catalogsvc.UpdatePizzaInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pizza, err := svc.UpdatePizza(r.Context(), pizzaID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pizza)
	}
}

func AdminPizzaDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pizzaID, err := pathUUID(r, "pizzaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeletePizza(r.Context(), pizzaID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "pizza removed")
	}
}

func AdminToppingCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload catalogsvc.CreateToppingInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		topping, err := svc.CreateTopping(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, topping)
	}
}

func AdminToppingUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		toppingID, err := pathUUID(r, "toppingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload catalogsvc.UpdateToppingInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		topping, err := svc.UpdateTopping(r.Context(), toppingID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, topping)
	}
}
