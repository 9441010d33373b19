package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListGroups lists every group, or looks one up when ?code= is given.
func handleListGroups(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if code := r.URL.Query().Get("code"); code != "" {
			group, err := deps.Groups.FindGroupByCode(r.Context(), code)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, toGroupResponse(group))
			return
		}

		groups, err := deps.Groups.ListGroups(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out := make([]groupResponse, len(groups))
		for i, g := range groups {
			out[i] = toGroupResponse(g)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleCreateGroup(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGroupRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		group, err := deps.Groups.CreateGroup(r.Context(), req.Name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGroupResponse(group))
	}
}

func handleGetGroup(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, err := deps.Groups.GetGroup(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toGroupResponse(group))
	}
}

func handleDeleteGroup(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Groups.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListFriends(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friends, err := deps.Friends.ListFriends(r.Context(), scopeFrom(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out := make([]friendResponse, len(friends))
		for i, f := range friends {
			out[i] = toFriendResponse(f)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAddFriend(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addFriendRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		friend, err := deps.Friends.AddFriend(r.Context(), req.Name, groupOrScope(r, req.GroupID))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFriendResponse(friend))
	}
}
